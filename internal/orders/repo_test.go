package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustCreateOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, expiresAt time.Time) models.Order {
	t.Helper()
	order := models.Order{
		ID:          uuid.New(),
		OrderSN:     fmt.Sprintf("SN%s", uuid.NewString()[:12]),
		ProductID:   uuid.New(),
		Status:      status,
		ActualPrice: decimal.RequireFromString("9.99"),
		PaidAmount:  decimal.Zero,
		Email:       "buyer@example.com",
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestCompleteIfWaitPay_FlipsOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	order := mustCreateOrder(t, db, enums.OrderStatusWaitPay, time.Now().Add(time.Hour))

	paid := decimal.RequireFromString("9.99")
	now := time.Now().UTC()

	flipped, err := repo.CompleteIfWaitPay(ctx, order.OrderSN, paid, now)
	require.NoError(t, err)
	assert.True(t, flipped)

	again, err := repo.CompleteIfWaitPay(ctx, order.OrderSN, paid, now)
	require.NoError(t, err)
	assert.False(t, again)

	reloaded, err := repo.FindByOrderSN(ctx, order.OrderSN)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, reloaded.Status)
	assert.True(t, reloaded.PaidAmount.Equal(paid))
	require.NotNil(t, reloaded.CompletedAt)
}

func TestCreate_PersistsClosedStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := mustCreateOrder(t, db, enums.OrderStatusClosed, time.Now().Add(time.Hour))

	reloaded, err := repo.FindByOrderSN(ctx, order.OrderSN)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusClosed, reloaded.Status)
}

func TestCompleteIfWaitPay_SkipsTerminalStates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, status := range []enums.OrderStatus{enums.OrderStatusExpired, enums.OrderStatusClosed, enums.OrderStatusCompleted} {
		order := mustCreateOrder(t, db, status, time.Now().Add(time.Hour))
		flipped, err := repo.CompleteIfWaitPay(ctx, order.OrderSN, decimal.Zero, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, flipped, "status %s must not flip", status)
	}
}

func TestExpireIfWaitPay(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	waiting := mustCreateOrder(t, db, enums.OrderStatusWaitPay, time.Now().Add(-time.Hour))
	paid := mustCreateOrder(t, db, enums.OrderStatusCompleted, time.Now().Add(-time.Hour))

	flipped, err := repo.ExpireIfWaitPay(ctx, waiting.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.ExpireIfWaitPay(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	reloaded, err := repo.FindByOrderSN(ctx, waiting.OrderSN)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusExpired, reloaded.Status)
}

func TestFindWaitPayExpiredBefore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := mustCreateOrder(t, db, enums.OrderStatusWaitPay, now.Add(-time.Hour))
	mustCreateOrder(t, db, enums.OrderStatusWaitPay, now.Add(time.Hour))
	mustCreateOrder(t, db, enums.OrderStatusCompleted, now.Add(-time.Hour))

	found, err := repo.FindWaitPayExpiredBefore(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}

func TestFindByOrderSN_NotFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByOrderSN(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLinkCards(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()
	cardIDs := []uuid.UUID{uuid.New(), uuid.New()}

	require.NoError(t, repo.LinkCards(ctx, orderID, cardIDs))
	require.NoError(t, repo.LinkCards(ctx, orderID, nil))

	var count int64
	require.NoError(t, db.Model(&models.OrderCard{}).Where("order_id = ?", orderID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
