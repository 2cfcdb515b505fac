package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByOrderSN(ctx context.Context, orderSN string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_sn = ?", orderSN).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CompleteIfWaitPay(ctx context.Context, orderSN string, paidAmount decimal.Decimal, completedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_sn = ?", orderSN).
		Where("status = ?", enums.OrderStatusWaitPay).
		Updates(map[string]any{
			"status":       enums.OrderStatusCompleted,
			"paid_amount":  paidAmount,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ExpireIfWaitPay(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where("status = ?", enums.OrderStatusWaitPay).
		Update("status", enums.OrderStatusExpired)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) LinkCards(ctx context.Context, orderID uuid.UUID, cardIDs []uuid.UUID) error {
	if len(cardIDs) == 0 {
		return nil
	}
	links := make([]models.OrderCard, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		links = append(links, models.OrderCard{ID: uuid.New(), OrderID: orderID, CardID: cardID})
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

func (r *repository) FindWaitPayExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.OrderStatusWaitPay, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
