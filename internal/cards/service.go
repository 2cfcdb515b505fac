package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/enums"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
	"gorm.io/gorm"
)

// AllocationResult reports the outcome of a claim attempt. Units is only
// meaningful when Allocated equals Requested; on a shortfall the enclosing
// transaction must roll back, which releases any partial claims.
type AllocationResult struct {
	Requested int
	Allocated int
	Units     []models.Card
}

// Service owns inventory allocation and card imports.
type Service interface {
	Allocate(ctx context.Context, tx *gorm.DB, productID uuid.UUID, count int) (*AllocationResult, error)
	ImportCards(ctx context.Context, input ImportInput) (int, error)
	AvailableCount(ctx context.Context, productID uuid.UUID) (int64, error)
}

// ImportInput carries a batch of card secrets to load for a product.
type ImportInput struct {
	ProductID   uuid.UUID
	Secrets     []string
	IsRecurring bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a card allocation service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cards repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// Allocate picks up to count unsold cards for the product inside the caller's
// transaction. Recurring cards are delivered as-is and never flipped; the
// non-recurring remainder is claimed with a conditional update so a concurrent
// allocation of the same cards loses the race instead of double-selling.
func (s *service) Allocate(ctx context.Context, tx *gorm.DB, productID uuid.UUID, count int) (*AllocationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for allocation")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if count <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allocation count must be positive")
	}

	repo := s.repo.WithTx(tx)

	candidates, err := repo.FindUnsoldByProduct(ctx, productID, count)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unsold cards")
	}

	result := &AllocationResult{Requested: count, Units: candidates}

	recurring := 0
	claimable := make([]uuid.UUID, 0, len(candidates))
	for _, card := range candidates {
		if card.IsRecurring {
			recurring++
			continue
		}
		claimable = append(claimable, card.ID)
	}

	claimed, err := repo.ClaimCards(ctx, claimable, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim cards")
	}

	result.Allocated = int(claimed) + recurring
	if result.Allocated < result.Requested {
		s.logg.Warn(ctx, fmt.Sprintf("allocation shortfall: requested %d, allocated %d", result.Requested, result.Allocated))
	}
	return result, nil
}

// ImportCards loads a batch of secrets as unsold inventory. Blank secrets are
// skipped; the returned count is the number of cards actually inserted.
func (s *service) ImportCards(ctx context.Context, input ImportInput) (int, error) {
	if input.ProductID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	batch := make([]models.Card, 0, len(input.Secrets))
	for _, secret := range input.Secrets {
		if secret == "" {
			continue
		}
		batch = append(batch, models.Card{
			ID:          uuid.New(),
			ProductID:   input.ProductID,
			Secret:      secret,
			Status:      enums.CardStatusUnsold,
			IsRecurring: input.IsRecurring,
		})
	}
	if len(batch) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "no card secrets provided")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).BulkInsert(ctx, batch)
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import cards")
	}

	s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), fmt.Sprintf("imported %d cards", len(batch)))
	return len(batch), nil
}

func (s *service) AvailableCount(ctx context.Context, productID uuid.UUID) (int64, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	count, err := s.repo.CountUnsold(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unsold cards")
	}
	return count, nil
}
