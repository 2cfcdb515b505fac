package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamishop/backend/internal/hooks"
	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/outbox"
)

const (
	consumerName       = "hook-worker"
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 2
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchDueTx(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type orderReader interface {
	FindByOrderSN(ctx context.Context, orderSN string) (*models.Order, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type strategyResolver interface {
	Resolve(tag string, product *models.Product) hooks.Strategy
}

type hookDispatcher interface {
	Dispatch(ctx context.Context, strategy hooks.Strategy, order *models.Order, product *models.Product) error
}

type tagExtractor interface {
	RoutingTag(order *models.Order) string
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// ServiceParams configure the hook delivery worker.
type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Orders     orderReader
	Products   productReader
	Registry   strategyResolver
	Dispatcher hookDispatcher
	Extractor  tagExtractor
	Guard      idempotencyGuard
}

// Service drains completion events from the outbox and delivers the matching
// webhook. Transport failures are retried up to the configured attempt cap;
// everything else resolves the event on the first pass.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	orders       orderReader
	products     productReader
	registry     strategyResolver
	dispatcher   hookDispatcher
	extractor    tagExtractor
	guard        idempotencyGuard
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders reader is required")
	}
	if params.Products == nil {
		return nil, errors.New("products reader is required")
	}
	if params.Registry == nil {
		return nil, errors.New("strategy registry is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if params.Extractor == nil {
		return nil, errors.New("tag extractor is required")
	}
	if params.Guard == nil {
		return nil, errors.New("idempotency guard is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		orders:       params.Orders,
		products:     params.Products,
		registry:     params.Registry,
		dispatcher:   params.Dispatcher,
		extractor:    params.Extractor,
		guard:        params.Guard,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "hook worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "hook worker batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchDueTx(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, event := range events {
			if err := s.handleEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (s *Service) handleEvent(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	fields := s.eventFields(event)
	eventCtx := s.logg.WithFields(ctx, fields)

	if event.EventType != enums.EventOrderCompleted {
		// Expiry events carry no hook; resolve them so the outbox drains.
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		return nil
	}

	envelope, payload, err := decodeCompletion(event.Payload)
	if err != nil {
		s.logg.Error(eventCtx, "undecodable completion event", err)
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		s.logg.Error(eventCtx, "event carries invalid event id", err)
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		return nil
	}
	eventCtx = s.logg.WithField(eventCtx, "event_id", envelope.EventID)

	alreadyProcessed, err := s.guard.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check %s: %w", event.ID, err)
	}
	if alreadyProcessed {
		s.logg.Info(eventCtx, "event already processed; resolving")
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		return nil
	}

	order, err := s.orders.FindByOrderSN(ctx, payload.OrderSN)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(eventCtx, "order for completion event no longer exists")
			if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
				return fmt.Errorf("mark published %s: %w", event.ID, err)
			}
			return nil
		}
		return s.retryLater(ctx, tx, event, eventID, fmt.Errorf("load order %s: %w", payload.OrderSN, err))
	}

	product, err := s.products.FindByID(ctx, order.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			product = nil
		} else {
			return s.retryLater(ctx, tx, event, eventID, fmt.Errorf("load product %s: %w", order.ProductID, err))
		}
	}

	tag := s.extractor.RoutingTag(order)
	strategy := s.registry.Resolve(tag, product)
	if strategy == nil {
		s.logg.Info(s.logg.WithField(eventCtx, "tag", tag), "no hook configured for order")
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		return nil
	}

	if err := s.dispatcher.Dispatch(eventCtx, strategy, order, product); err != nil {
		return s.retryLater(ctx, tx, event, eventID, err)
	}

	if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, err)
	}
	return nil
}

// retryLater records a failed attempt and clears the idempotency mark so the
// next poll can take another run at the event.
func (s *Service) retryLater(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, eventID uuid.UUID, cause error) error {
	fields := s.eventFields(event)
	fields["attempt_count"] = event.AttemptCount + 1
	fields["error"] = cause.Error()
	logCtx := s.logg.WithFields(ctx, fields)
	if event.AttemptCount+1 >= s.maxAttempts {
		s.logg.Warn(logCtx, "hook delivery giving up after final attempt")
	} else {
		s.logg.Warn(logCtx, "hook delivery failed; will retry")
	}

	if err := s.guard.Delete(ctx, consumerName, eventID); err != nil {
		s.logg.Error(logCtx, "failed to clear idempotency mark", err)
	}
	if err := s.repo.MarkFailedTx(tx, event.ID, cause); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	return nil
}

func decodeCompletion(raw json.RawMessage) (*outbox.PayloadEnvelope, *orders.OrderCompletedEvent, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode envelope: %w", err)
	}
	var payload orders.OrderCompletedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, nil, fmt.Errorf("decode completion payload: %w", err)
	}
	if payload.OrderSN == "" {
		return nil, nil, errors.New("completion payload missing order sn")
	}
	return &envelope, &payload, nil
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
