package enums

import "fmt"

// CardStatus tracks whether a card code has been consumed by an order.
type CardStatus int

const (
	CardStatusUnsold CardStatus = 1
	CardStatusSold   CardStatus = 2
)

var validCardStatuses = []CardStatus{
	CardStatusUnsold,
	CardStatusSold,
}

// IsValid reports whether the value is a known card status.
func (s CardStatus) IsValid() bool {
	for _, candidate := range validCardStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s CardStatus) String() string {
	switch s {
	case CardStatusUnsold:
		return "unsold"
	case CardStatusSold:
		return "sold"
	default:
		return fmt.Sprintf("card_status(%d)", int(s))
	}
}
