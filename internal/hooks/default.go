package hooks

import (
	"strings"

	"github.com/kamishop/backend/pkg/db/models"
)

// StrategyDefault is the fallback used when a product carries its own hook
// URL and no named strategy claims the order.
const StrategyDefault = "default"

// DefaultStrategy posts the completed order to the product's hook URL. The
// upstream reply is not inspected; reaching the endpoint counts as delivered.
type DefaultStrategy struct{}

// NewDefaultStrategy builds the fallback product-hook strategy.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Name() string {
	return StrategyDefault
}

func (s *DefaultStrategy) Build(order *models.Order, product *models.Product) (*Request, error) {
	if product == nil || product.HookURL == nil || strings.TrimSpace(*product.HookURL) == "" {
		return nil, ErrNotConfigured
	}

	return &Request{
		URL: strings.TrimSpace(*product.HookURL),
		Payload: map[string]any{
			"order_sn":     order.OrderSN,
			"email":        order.Email,
			"product_id":   order.ProductID,
			"product_name": product.Name,
			"actual_price": order.ActualPrice,
			"paid_amount":  order.PaidAmount,
			"completed_at": order.CompletedAt,
		},
	}, nil
}

func (s *DefaultStrategy) CheckResponse(status int, body []byte) error {
	return nil
}
