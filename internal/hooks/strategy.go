package hooks

import (
	"errors"
	"fmt"

	"github.com/kamishop/backend/pkg/db/models"
)

// ErrNotConfigured means the strategy has nowhere to deliver; the dispatch is
// skipped, not retried.
var ErrNotConfigured = errors.New("hook not configured")

// Request is a prepared webhook call.
type Request struct {
	URL     string
	Payload any
}

// Strategy prepares and validates one kind of completion webhook.
type Strategy interface {
	Name() string
	Build(order *models.Order, product *models.Product) (*Request, error)
	// CheckResponse inspects the upstream reply. A FormatError or
	// BusinessError verdict is terminal; nil means delivered.
	CheckResponse(status int, body []byte) error
}

// FormatError means the upstream reply was not in the agreed shape.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "hook response format error: " + e.Reason
}

// BusinessError means the upstream understood the call but rejected it.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return "hook rejected by upstream"
	}
	return fmt.Sprintf("hook rejected by upstream: %s", e.Message)
}
