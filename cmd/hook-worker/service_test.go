package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kamishop/backend/internal/hooks"
	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/outbox"
)

type stubDB struct{}

func (stubDB) Ping(context.Context) error { return nil }

func (stubDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxRepo struct {
	due       []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubOutboxRepo) FetchDueTx(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	due := s.due
	s.due = nil
	return due, nil
}

func (s *stubOutboxRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubOrderReader struct {
	order *models.Order
	err   error
}

func (s *stubOrderReader) FindByOrderSN(context.Context, string) (*models.Order, error) {
	return s.order, s.err
}

type stubProductReader struct {
	product *models.Product
	err     error
}

func (s *stubProductReader) FindByID(context.Context, uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

type stubStrategy struct{ name string }

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Build(*models.Order, *models.Product) (*hooks.Request, error) {
	return &hooks.Request{URL: "http://example.test/hook"}, nil
}

func (s *stubStrategy) CheckResponse(int, []byte) error { return nil }

type stubResolver struct {
	strategy hooks.Strategy
	tags     []string
}

func (s *stubResolver) Resolve(tag string, _ *models.Product) hooks.Strategy {
	s.tags = append(s.tags, tag)
	return s.strategy
}

type stubDispatcher struct {
	err   error
	calls int
}

func (s *stubDispatcher) Dispatch(context.Context, hooks.Strategy, *models.Order, *models.Product) error {
	s.calls++
	return s.err
}

type stubExtractor struct{ tag string }

func (s stubExtractor) RoutingTag(*models.Order) string { return s.tag }

type stubGuard struct {
	processed bool
	marked    []uuid.UUID
	deleted   []uuid.UUID
}

func (s *stubGuard) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if s.processed {
		return true, nil
	}
	s.marked = append(s.marked, eventID)
	return false, nil
}

func (s *stubGuard) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

type workerFixture struct {
	service    *Service
	repo       *stubOutboxRepo
	dispatcher *stubDispatcher
	guard      *stubGuard
	resolver   *stubResolver
}

func newWorkerFixture(t *testing.T, mutate func(*ServiceParams)) *workerFixture {
	t.Helper()

	repo := &stubOutboxRepo{}
	dispatcher := &stubDispatcher{}
	guard := &stubGuard{}
	resolver := &stubResolver{strategy: &stubStrategy{name: "novel"}}

	hookURL := "http://example.test/hook"
	params := ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "hook-worker-test"}),
		DB:         stubDB{},
		Repository: repo,
		Orders: &stubOrderReader{order: &models.Order{
			ID:      uuid.New(),
			OrderSN: "SN-1",
			Status:  enums.OrderStatusCompleted,
			Email:   "buyer@example.com",
		}},
		Products:   &stubProductReader{product: &models.Product{ID: uuid.New(), Name: "Gift Card", HookURL: &hookURL}},
		Registry:   resolver,
		Dispatcher: dispatcher,
		Extractor:  stubExtractor{tag: "novel"},
		Guard:      guard,
	}
	if mutate != nil {
		mutate(&params)
	}

	service, err := NewService(params)
	require.NoError(t, err)
	return &workerFixture{service: service, repo: repo, dispatcher: dispatcher, guard: guard, resolver: resolver}
}

func completionEvent(t *testing.T, orderSN string) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(orders.OrderCompletedEvent{
		OrderID:   uuid.New(),
		OrderSN:   orderSN,
		ProductID: uuid.New(),
		Email:     "buyer@example.com",
		CardCount: 1,
	})
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCompleted,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestProcessBatchDeliversCompletionEvent(t *testing.T) {
	f := newWorkerFixture(t, nil)
	event := completionEvent(t, "SN-1")
	f.repo.due = []models.OutboxEvent{event}

	processed, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, 1, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
	require.Empty(t, f.repo.failed)
	require.Len(t, f.guard.marked, 1)
	require.Equal(t, []string{"novel"}, f.resolver.tags)
}

func TestProcessBatchRetriesOnTransportFailure(t *testing.T) {
	f := newWorkerFixture(t, nil)
	f.dispatcher.err = errors.New("connection refused")
	event := completionEvent(t, "SN-1")
	f.repo.due = []models.OutboxEvent{event}

	processed, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.failed)
	require.Empty(t, f.repo.published)
	// The idempotency mark is cleared so the retry is not blocked.
	require.Len(t, f.guard.deleted, 1)
	require.Equal(t, f.guard.marked, f.guard.deleted)
}

func TestProcessBatchResolvesAlreadyProcessedEvent(t *testing.T) {
	f := newWorkerFixture(t, nil)
	f.guard.processed = true
	event := completionEvent(t, "SN-1")
	f.repo.due = []models.OutboxEvent{event}

	_, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestProcessBatchResolvesExpiryEventWithoutDispatch(t *testing.T) {
	f := newWorkerFixture(t, nil)
	event := completionEvent(t, "SN-1")
	event.EventType = enums.EventOrderExpired
	f.repo.due = []models.OutboxEvent{event}

	_, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestProcessBatchResolvesUndecodablePayload(t *testing.T) {
	f := newWorkerFixture(t, nil)
	event := completionEvent(t, "SN-1")
	event.Payload = json.RawMessage(`{"version":1,"data":{}}`)
	f.repo.due = []models.OutboxEvent{event}

	_, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestProcessBatchResolvesMissingOrder(t *testing.T) {
	f := newWorkerFixture(t, func(params *ServiceParams) {
		params.Orders = &stubOrderReader{err: gorm.ErrRecordNotFound}
	})
	event := completionEvent(t, "SN-gone")
	f.repo.due = []models.OutboxEvent{event}

	_, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
	require.Empty(t, f.repo.failed)
}

func TestProcessBatchResolvesWhenNoStrategyApplies(t *testing.T) {
	f := newWorkerFixture(t, nil)
	f.resolver.strategy = nil
	event := completionEvent(t, "SN-1")
	f.repo.due = []models.OutboxEvent{event}

	_, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.Zero(t, f.dispatcher.calls)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestProcessBatchIdlesOnEmptyOutbox(t *testing.T) {
	f := newWorkerFixture(t, nil)

	processed, err := f.service.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}
