package hooks

import (
	"regexp"

	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/pkg/db/models"
)

// Patterns matched against the free-text order info for orders created before
// structured metadata existed. Both half-width and full-width colons appear in
// the wild.
var (
	sourcePattern          = regexp.MustCompile(`来源[:：\s]+([^\s]+)`)
	rechargeAccountPattern = regexp.MustCompile(`充值账号[:：\s]+([^\s]+)`)
)

// Extractor resolves routing metadata for an order. Structured metadata wins;
// the info-text patterns are a fallback for legacy rows.
type Extractor struct{}

// RoutingTag returns the notification routing tag, or "" when the order
// carries none.
func (Extractor) RoutingTag(order *models.Order) string {
	if order == nil {
		return ""
	}
	if tag := order.Metadata.Get(orders.MetadataKeySource); tag != "" {
		return tag
	}
	return firstMatch(sourcePattern, order.Info)
}

// RechargeAccount returns the account a recharge hook should credit, or ""
// when the order carries none.
func (Extractor) RechargeAccount(order *models.Order) string {
	if order == nil {
		return ""
	}
	if account := order.Metadata.Get(orders.MetadataKeyRechargeAccount); account != "" {
		return account
	}
	return firstMatch(rechargeAccountPattern, order.Info)
}

func firstMatch(pattern *regexp.Regexp, text string) string {
	if text == "" {
		return ""
	}
	matches := pattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}
