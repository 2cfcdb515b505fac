package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderCard links an order to the cards allocated to it. Rows are written in
// the same transaction as the completion status flip so support tooling can
// always answer "which codes did this order receive".
type OrderCard struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_cards_order_card"`
	CardID    uuid.UUID `gorm:"column:card_id;type:uuid;not null;uniqueIndex:ux_order_cards_order_card"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
