package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kamishop/backend/pkg/db/models"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

// CreateInput describes a new listing. A zero UnitCount defaults to one card
// per order; HookURL is optional.
type CreateInput struct {
	Name      string
	Price     decimal.Decimal
	UnitCount int
	HookURL   *string
}

// Service owns the admin-facing catalog surface.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	SetHookURL(ctx context.Context, id uuid.UUID, hookURL *string) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the products service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	unitCount := input.UnitCount
	if unitCount <= 0 {
		unitCount = 1
	}
	var hookURL *string
	if input.HookURL != nil {
		if trimmed := strings.TrimSpace(*input.HookURL); trimmed != "" {
			hookURL = &trimmed
		}
	}

	product, err := s.repo.Create(ctx, &models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     input.Price,
		UnitCount: unitCount,
		HookURL:   hookURL,
		IsActive:  true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.logg.Info(s.logg.WithProductID(ctx, product.ID.String()), "product created")
	return product, nil
}

// SetHookURL points the product's default completion webhook at hookURL; nil
// or blank clears it.
func (s *service) SetHookURL(ctx context.Context, id uuid.UUID, hookURL *string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if hookURL != nil {
		trimmed := strings.TrimSpace(*hookURL)
		if trimmed == "" {
			hookURL = nil
		} else {
			hookURL = &trimmed
		}
	}

	if err := s.repo.UpdateHookURL(ctx, id, hookURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update hook url")
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product hook url updated")
	return nil
}
