package hooks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
)

// StrategyNovel is the routing tag for the novel-site recharge integration.
const StrategyNovel = "novel"

// NovelStrategy credits a recharge account on the configured novel API after
// an order completes. The upstream confirms with a boolean success flag.
type NovelStrategy struct {
	apiURL    string
	extractor Extractor
}

// NewNovelStrategy builds the novel strategy from hook configuration.
func NewNovelStrategy(cfg config.HooksConfig) *NovelStrategy {
	return &NovelStrategy{apiURL: strings.TrimSpace(cfg.NovelAPIURL)}
}

func (s *NovelStrategy) Name() string {
	return StrategyNovel
}

func (s *NovelStrategy) Build(order *models.Order, product *models.Product) (*Request, error) {
	if s.apiURL == "" {
		return nil, ErrNotConfigured
	}

	account := s.extractor.RechargeAccount(order)
	if account == "" {
		account = strings.TrimSpace(order.Email)
	}
	if account == "" {
		return nil, fmt.Errorf("no recharge account or email on order %s", order.OrderSN)
	}

	goodName := ""
	if product != nil {
		goodName = product.Name
	}

	return &Request{
		URL: s.apiURL,
		Payload: map[string]any{
			"email":     account,
			"order_sn":  order.OrderSN,
			"amount":    order.PaidAmount,
			"good_name": goodName,
			"timestamp": time.Now().Unix(),
		},
	}, nil
}

func (s *NovelStrategy) CheckResponse(status int, body []byte) error {
	var parsed struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &FormatError{Reason: "response is not valid JSON"}
	}
	if parsed.Success == nil {
		return &FormatError{Reason: "response missing success flag"}
	}
	if !*parsed.Success {
		return &BusinessError{Message: parsed.Message}
	}
	return nil
}
