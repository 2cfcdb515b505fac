package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamishop/backend/pkg/enums"
	"github.com/kamishop/backend/pkg/types"
)

// Order is a purchase of card codes for one product. OrderSN is the immutable
// business key used by gateway callbacks and the polling page; Status only
// moves forward from wait_pay.
type Order struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderSN      string            `gorm:"column:order_sn;uniqueIndex:ux_orders_order_sn;not null"`
	ProductID    uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	Status       enums.OrderStatus `gorm:"column:status;not null"`
	ActualPrice  decimal.Decimal   `gorm:"column:actual_price;type:numeric(10,2);not null"`
	PaidAmount   decimal.Decimal   `gorm:"column:paid_amount;type:numeric(10,2);not null"`
	Email        string            `gorm:"column:email;not null"`
	Info         string            `gorm:"column:info"`
	Metadata     types.JSONMap     `gorm:"column:metadata;type:jsonb;serializer:json"`
	PayChannelID *uuid.UUID        `gorm:"column:pay_channel_id;type:uuid"`
	ExpiresAt    time.Time         `gorm:"column:expires_at;not null"`
	CompletedAt  *time.Time        `gorm:"column:completed_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
