package cards

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustCreateCard(t *testing.T, db *gorm.DB, productID uuid.UUID, status enums.CardStatus, recurring bool, createdAt time.Time) models.Card {
	t.Helper()
	card := models.Card{
		ID:          uuid.New(),
		ProductID:   productID,
		Secret:      fmt.Sprintf("code-%s", uuid.NewString()[:8]),
		Status:      status,
		IsRecurring: recurring,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, db.Create(&card).Error)
	return card
}

func TestFindUnsoldByProduct_OrderAndLimit(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, base)
	middle := mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, base.Add(time.Minute))
	mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, base.Add(2*time.Minute))
	mustCreateCard(t, db, productID, enums.CardStatusSold, false, base.Add(-time.Hour))
	mustCreateCard(t, db, uuid.New(), enums.CardStatusUnsold, false, base)

	found, err := repo.FindUnsoldByProduct(ctx, productID, 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, oldest.ID, found[0].ID)
	assert.Equal(t, middle.ID, found[1].ID)
}

func TestClaimCards_OnlyUnsoldNonRecurring(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	unsold := mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, now)
	sold := mustCreateCard(t, db, productID, enums.CardStatusSold, false, now)
	recurring := mustCreateCard(t, db, productID, enums.CardStatusUnsold, true, now)

	claimed, err := repo.ClaimCards(ctx, []uuid.UUID{unsold.ID, sold.ID, recurring.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claimed)

	var reloaded models.Card
	require.NoError(t, db.Where("id = ?", unsold.ID).First(&reloaded).Error)
	assert.Equal(t, enums.CardStatusSold, reloaded.Status)
	require.NotNil(t, reloaded.SoldAt)

	var untouched models.Card
	require.NoError(t, db.Where("id = ?", recurring.ID).First(&untouched).Error)
	assert.Equal(t, enums.CardStatusUnsold, untouched.Status)
	assert.Nil(t, untouched.SoldAt)
}

func TestClaimCards_SecondClaimLoses(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	card := mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, now)

	first, err := repo.ClaimCards(ctx, []uuid.UUID{card.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := repo.ClaimCards(ctx, []uuid.UUID{card.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second)
}

func TestClaimCards_EmptyInput(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)

	claimed, err := repo.ClaimCards(context.Background(), nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), claimed)
}

func TestCountUnsold(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	mustCreateCard(t, db, productID, enums.CardStatusUnsold, false, now)
	mustCreateCard(t, db, productID, enums.CardStatusUnsold, true, now)
	mustCreateCard(t, db, productID, enums.CardStatusSold, false, now)

	count, err := repo.CountUnsold(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestFindByOrderID(t *testing.T) {
	db := setupCardsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()
	orderID := uuid.New()
	now := time.Now().UTC()

	first := mustCreateCard(t, db, productID, enums.CardStatusSold, false, now)
	second := mustCreateCard(t, db, productID, enums.CardStatusSold, false, now.Add(time.Second))
	mustCreateCard(t, db, productID, enums.CardStatusSold, false, now)

	for _, cardID := range []uuid.UUID{first.ID, second.ID} {
		require.NoError(t, db.Create(&models.OrderCard{ID: uuid.New(), OrderID: orderID, CardID: cardID}).Error)
	}

	found, err := repo.FindByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)
}
