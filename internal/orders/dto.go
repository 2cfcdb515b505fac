package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Metadata keys written at order intake and read by hook routing.
const (
	MetadataKeySource          = "source"
	MetadataKeyRechargeAccount = "recharge_account"
)

// CreateOrderInput captures a checkout request before payment.
type CreateOrderInput struct {
	ProductID       uuid.UUID
	Email           string
	PayChannelID    *uuid.UUID
	Source          string
	RechargeAccount string
	Info            string
}

// StatusView is what the payment-result polling page sees.
type StatusView struct {
	OrderSN     string            `json:"order_sn"`
	Status      enums.OrderStatus `json:"status"`
	StatusLabel string            `json:"status_label"`
	ActualPrice decimal.Decimal   `json:"actual_price"`
	PaidAmount  decimal.Decimal   `json:"paid_amount"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Cards       []string          `json:"cards,omitempty"`
}

// OrderCompletedEvent is emitted in the completion transaction and consumed by
// the hook worker.
type OrderCompletedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	OrderSN    string          `json:"order_sn"`
	ProductID  uuid.UUID       `json:"product_id"`
	Email      string          `json:"email"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	CardCount  int             `json:"card_count"`
}

// OrderExpiredEvent is emitted when the expiry sweep closes an unpaid order.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	OrderSN   string    `json:"order_sn"`
	ProductID uuid.UUID `json:"product_id"`
}
