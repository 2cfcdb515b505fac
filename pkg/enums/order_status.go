package enums

import "fmt"

// OrderStatus is the lifecycle state of an order. The numeric values are
// ordinal: anything at or above OrderStatusCompleted counts as paid, which is
// what the completion path's "already paid" check relies on.
type OrderStatus int

const (
	OrderStatusExpired   OrderStatus = -1
	OrderStatusClosed    OrderStatus = 0
	OrderStatusWaitPay   OrderStatus = 1
	OrderStatusCompleted OrderStatus = 2
)

var validOrderStatuses = []OrderStatus{
	OrderStatusExpired,
	OrderStatusClosed,
	OrderStatusWaitPay,
	OrderStatusCompleted,
}

// IsValid reports whether the value is a known order status.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Paid reports whether the status is at or past completion.
func (s OrderStatus) Paid() bool {
	return s >= OrderStatusCompleted
}

// Terminal reports whether the status can no longer move forward.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusWaitPay
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusExpired:
		return "expired"
	case OrderStatusClosed:
		return "closed"
	case OrderStatusWaitPay:
		return "wait_pay"
	case OrderStatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("order_status(%d)", int(s))
	}
}
