package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kamishop/backend/pkg/enums"
)

// Card is one sellable secret payload belonging to a product. Rows are never
// deleted; a non-recurring card transitions unsold -> sold exactly once.
// Recurring cards stay unsold forever and are delivered to any number of
// orders.
type Card struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index:ix_cards_product_status"`
	Secret      string           `gorm:"column:secret;not null"`
	Status      enums.CardStatus `gorm:"column:status;not null;index:ix_cards_product_status"`
	IsRecurring bool             `gorm:"column:is_recurring;not null"`
	SoldAt      *time.Time       `gorm:"column:sold_at"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
