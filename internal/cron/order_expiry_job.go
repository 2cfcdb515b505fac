package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/logger"
	"go.uber.org/multierr"
)

const expiryBatchSize = 200

// OrderExpiryJobParams configure the unpaid-order sweep.
type OrderExpiryJobParams struct {
	Logger  *logger.Logger
	Reader  expiredOrderReader
	Expirer orderExpirer
}

type expiredOrderReader interface {
	FindWaitPayExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderExpirer interface {
	ExpireOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NewOrderExpiryJob builds the cron job that closes unpaid orders past their
// deadline.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	return &orderExpiryJob{
		logg:    params.Logger,
		reader:  params.Reader,
		expirer: params.Expirer,
		now:     time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg    *logger.Logger
	reader  expiredOrderReader
	expirer orderExpirer
	now     func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

// Run expires one batch per cycle. Each order is flipped in its own
// transaction so one failure does not abort the sweep.
func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	stale, err := j.reader.FindWaitPayExpiredBefore(ctx, cutoff, expiryBatchSize)
	if err != nil {
		return fmt.Errorf("query stale orders: %w", err)
	}

	var errs []error
	expired := 0
	for _, order := range stale {
		flipped, err := j.expirer.ExpireOrder(ctx, order.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.OrderSN, err))
			continue
		}
		if flipped {
			expired++
		}
	}

	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale orders expired")
	}
	return multierr.Combine(errs...)
}
