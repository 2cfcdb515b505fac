package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/metrics"
)

// Dispatch outcomes recorded per attempt.
const (
	OutcomeDelivered      = "delivered"
	OutcomeSkipped        = "skipped"
	OutcomeInvalid        = "invalid"
	OutcomeTransportError = "transport_error"
	OutcomeFormatError    = "format_error"
	OutcomeBusinessError  = "business_error"
)

const maxResponseBytes = 1 << 20

// Dispatcher performs the HTTP delivery of a prepared hook. Only transport
// failures surface as errors so the caller can retry them; format and
// business rejections are terminal and only logged.
type Dispatcher struct {
	client  *http.Client
	logg    *logger.Logger
	metrics *metrics.HookMetrics
}

// NewDispatcher builds a dispatcher with the configured delivery timeout.
func NewDispatcher(cfg config.HooksConfig, logg *logger.Logger, m *metrics.HookMetrics) (*Dispatcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		logg:    logg,
		metrics: m,
	}, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, strategy Strategy, order *models.Order, product *models.Product) error {
	if strategy == nil || order == nil {
		return nil
	}

	name := strategy.Name()
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.ObserveDuration(name, time.Since(start))
		}
	}()

	ctx = d.logg.WithFields(ctx, map[string]any{
		"strategy": name,
		"order_sn": order.OrderSN,
	})

	request, err := strategy.Build(order, product)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			d.recordOutcome(name, OutcomeSkipped)
			d.logg.Info(ctx, "hook skipped: not configured")
			return nil
		}
		d.recordOutcome(name, OutcomeInvalid)
		d.logg.Error(ctx, "hook request could not be built", err)
		return nil
	}

	body, err := json.Marshal(request.Payload)
	if err != nil {
		d.recordOutcome(name, OutcomeInvalid)
		d.logg.Error(ctx, "hook payload could not be encoded", err)
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, request.URL, bytes.NewReader(body))
	if err != nil {
		d.recordOutcome(name, OutcomeInvalid)
		d.logg.Error(ctx, "hook request could not be created", err)
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.recordOutcome(name, OutcomeTransportError)
		d.logg.Error(ctx, "hook delivery failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver hook")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		d.recordOutcome(name, OutcomeTransportError)
		d.logg.Error(ctx, "hook response could not be read", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read hook response")
	}

	switch verdict := strategy.CheckResponse(resp.StatusCode, respBody); {
	case verdict == nil:
		d.recordOutcome(name, OutcomeDelivered)
		d.logg.Info(ctx, "hook delivered")
		return nil
	default:
		var formatErr *FormatError
		var businessErr *BusinessError
		switch {
		case errors.As(verdict, &formatErr):
			d.recordOutcome(name, OutcomeFormatError)
		case errors.As(verdict, &businessErr):
			d.recordOutcome(name, OutcomeBusinessError)
		default:
			d.recordOutcome(name, OutcomeInvalid)
		}
		d.logg.Warn(d.logg.WithField(ctx, "verdict", verdict.Error()), "hook not confirmed by upstream")
		return nil
	}
}

func (d *Dispatcher) recordOutcome(strategy, outcome string) {
	if d.metrics != nil {
		d.metrics.IncOutcome(strategy, outcome)
	}
}
