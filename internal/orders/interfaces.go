package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists orders and their delivered-card links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByOrderSN(ctx context.Context, orderSN string) (*models.Order, error)
	// CompleteIfWaitPay flips the order to completed only if it is still in
	// wait_pay. Returns false when another writer got there first.
	CompleteIfWaitPay(ctx context.Context, orderSN string, paidAmount decimal.Decimal, completedAt time.Time) (bool, error)
	// ExpireIfWaitPay flips the order to expired only if it is still in
	// wait_pay.
	ExpireIfWaitPay(ctx context.Context, id uuid.UUID) (bool, error)
	LinkCards(ctx context.Context, orderID uuid.UUID, cardIDs []uuid.UUID) error
	FindWaitPayExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}
