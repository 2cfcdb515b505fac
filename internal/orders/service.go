package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/internal/cards"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/outbox"
	"github.com/kamishop/backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Completion failures a caller can branch on. The checks run in this order:
// unknown order, terminal-but-unpaid order, already-paid order, inventory.
var (
	ErrOrderNotFound         = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrOrderExpired          = pkgerrors.New(pkgerrors.CodeStateConflict, "order is expired or closed")
	ErrAlreadyPaid           = pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	ErrInsufficientInventory = pkgerrors.New(pkgerrors.CodeConflict, "insufficient card inventory")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Catalog resolves the product an order sells. Product rows are treated as
// stable reads, so lookups run outside the completion transaction.
type Catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Allocator claims card inventory inside the completion transaction.
type Allocator interface {
	Allocate(ctx context.Context, tx *gorm.DB, productID uuid.UUID, count int) (*cards.AllocationResult, error)
}

// CardReader loads the cards delivered to an order.
type CardReader interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Card, error)
}

// Service owns order intake, completion, and the polling read.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	CompleteOrder(ctx context.Context, orderSN string, paidAmount decimal.Decimal) error
	ExpireOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	StatusByOrderSN(ctx context.Context, orderSN string) (*StatusView, error)
}

type service struct {
	repo      Repository
	catalog   Catalog
	allocator Allocator
	cardRead  CardReader
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	orderTTL  time.Duration
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo      Repository
	Catalog   Catalog
	Allocator Allocator
	CardRead  CardReader
	Tx        txRunner
	Outbox    outboxPublisher
	Logger    *logger.Logger
	OrderTTL  time.Duration
}

const defaultOrderTTL = 30 * time.Minute

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Allocator == nil {
		return nil, fmt.Errorf("allocator required")
	}
	if params.CardRead == nil {
		return nil, fmt.Errorf("card reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.OrderTTL <= 0 {
		params.OrderTTL = defaultOrderTTL
	}
	return &service{
		repo:      params.Repo,
		catalog:   params.Catalog,
		allocator: params.Allocator,
		cardRead:  params.CardRead,
		tx:        params.Tx,
		outbox:    params.Outbox,
		logg:      params.Logger,
		orderTTL:  params.OrderTTL,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	product, err := s.catalog.FindActiveByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	metadata := types.JSONMap{}
	if source := strings.TrimSpace(input.Source); source != "" {
		metadata[MetadataKeySource] = source
	}
	if account := strings.TrimSpace(input.RechargeAccount); account != "" {
		metadata[MetadataKeyRechargeAccount] = account
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:           uuid.New(),
		OrderSN:      newOrderSN(now),
		ProductID:    product.ID,
		Status:       enums.OrderStatusWaitPay,
		ActualPrice:  product.Price,
		PaidAmount:   decimal.Zero,
		Email:        strings.TrimSpace(input.Email),
		Info:         input.Info,
		Metadata:     metadata,
		PayChannelID: input.PayChannelID,
		ExpiresAt:    now.Add(s.orderTTL),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	logCtx := s.logg.WithOrderSN(ctx, order.OrderSN)
	s.logg.Info(logCtx, "order created")
	return order, nil
}

// CompleteOrder settles a paid order inside one transaction: allocate the
// product's card count, flip wait_pay to completed, link the delivered cards,
// and queue the completion event. Any failure rolls the whole thing back, so
// a lost race or an inventory shortfall never leaks claimed cards.
func (s *service) CompleteOrder(ctx context.Context, orderSN string, paidAmount decimal.Decimal) error {
	if strings.TrimSpace(orderSN) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order sn required")
	}
	if paidAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "paid amount cannot be negative")
	}

	ctx = s.logg.WithOrderSN(ctx, orderSN)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByOrderSN(ctx, orderSN)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status.Paid() {
			return ErrAlreadyPaid
		}
		if order.Status.Terminal() {
			return ErrOrderExpired
		}

		// Free orders settle at zero no matter what the gateway reports.
		if order.ActualPrice.IsZero() {
			paidAmount = decimal.Zero
		}

		product, err := s.catalog.FindByID(ctx, order.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		quantity := product.UnitCount
		if quantity <= 0 {
			quantity = 1
		}

		allocation, err := s.allocator.Allocate(ctx, tx, order.ProductID, quantity)
		if err != nil {
			return err
		}
		if allocation.Allocated < quantity {
			return ErrInsufficientInventory
		}

		completed, err := repo.CompleteIfWaitPay(ctx, orderSN, paidAmount, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if !completed {
			// A concurrent completion of the same order won the flip; rolling
			// back releases the cards this attempt claimed.
			return ErrAlreadyPaid
		}

		cardIDs := make([]uuid.UUID, 0, len(allocation.Units))
		for _, card := range allocation.Units {
			cardIDs = append(cardIDs, card.ID)
		}
		if err := repo.LinkCards(ctx, order.ID, cardIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link delivered cards")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderCompletedEvent{
				OrderID:    order.ID,
				OrderSN:    order.OrderSN,
				ProductID:  order.ProductID,
				Email:      order.Email,
				PaidAmount: paidAmount,
				CardCount:  len(cardIDs),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue completion event")
		}

		s.logg.Info(ctx, "order completed")
		return nil
	})
}

// ExpireOrder closes one unpaid order past its deadline. Returns false when
// the order was paid or expired in the meantime.
func (s *service) ExpireOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	expired := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		flipped, err := repo.ExpireIfWaitPay(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order")
		}
		if !flipped {
			return nil
		}
		expired = true

		var row models.Order
		if err := tx.WithContext(ctx).Where("id = ?", orderID).First(&row).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderExpired,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			Version:       1,
			Data: OrderExpiredEvent{
				OrderID:   row.ID,
				OrderSN:   row.OrderSN,
				ProductID: row.ProductID,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}

func (s *service) StatusByOrderSN(ctx context.Context, orderSN string) (*StatusView, error) {
	if strings.TrimSpace(orderSN) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order sn required")
	}

	order, err := s.repo.FindByOrderSN(ctx, orderSN)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	view := &StatusView{
		OrderSN:     order.OrderSN,
		Status:      order.Status,
		StatusLabel: order.Status.String(),
		ActualPrice: order.ActualPrice,
		PaidAmount:  order.PaidAmount,
		CompletedAt: order.CompletedAt,
	}

	if order.Status.Paid() {
		delivered, err := s.cardRead.FindByOrderID(ctx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivered cards")
		}
		secrets := make([]string, 0, len(delivered))
		for _, card := range delivered {
			secrets = append(secrets, card.Secret)
		}
		view.Cards = secrets
	}
	return view, nil
}

func newOrderSN(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return now.Format("20060102150405") + strings.ToUpper(hex.EncodeToString(buf))
}
