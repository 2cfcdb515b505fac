package cards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists card codes and performs the conditional claim used by
// allocation. Claim counts come from RowsAffected, never from the prior read.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUnsoldByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Card, error)
	ClaimCards(ctx context.Context, ids []uuid.UUID, soldAt time.Time) (int64, error)
	BulkInsert(ctx context.Context, cards []models.Card) error
	CountUnsold(ctx context.Context, productID uuid.UUID) (int64, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Card, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cards repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindUnsoldByProduct returns unsold candidates in deterministic order so two
// racing allocations pick overlapping sets and only one wins the claim.
func (r *repository) FindUnsoldByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, enums.CardStatusUnsold).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ClaimCards flips the given non-recurring cards to sold only if they are
// still unsold. The returned count is the number of rows actually claimed.
func (r *repository) ClaimCards(ctx context.Context, ids []uuid.UUID, soldAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("id IN ?", ids).
		Where("status = ?", enums.CardStatusUnsold).
		Where("is_recurring = ?", false).
		Updates(map[string]any{
			"status":  enums.CardStatusSold,
			"sold_at": soldAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) BulkInsert(ctx context.Context, cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&cards).Error
}

func (r *repository) CountUnsold(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("product_id = ? AND status = ?", productID, enums.CardStatusUnsold).
		Count(&count).Error
	return count, err
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.WithContext(ctx).
		Joins("JOIN order_cards ON order_cards.card_id = cards.id").
		Where("order_cards.order_id = ?", orderID).
		Order("cards.created_at ASC, cards.id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}
