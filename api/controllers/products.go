package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamishop/backend/api/responses"
	"github.com/kamishop/backend/api/validators"
	"github.com/kamishop/backend/internal/products"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

type createProductRequest struct {
	Name      string `json:"name" validate:"required,max=190"`
	Price     string `json:"price" validate:"required"`
	UnitCount int    `json:"unit_count" validate:"omitempty,min=1,max=100"`
	HookURL   string `json:"hook_url" validate:"omitempty,url,max=500"`
}

type productResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	UnitCount int     `json:"unit_count"`
	HookURL   *string `json:"hook_url,omitempty"`
	IsActive  bool    `json:"is_active"`
}

// CreateProduct opens a new listing for sale.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal string"))
			return
		}

		input := products.CreateInput{
			Name:      req.Name,
			Price:     price,
			UnitCount: req.UnitCount,
		}
		if req.HookURL != "" {
			input.HookURL = &req.HookURL
		}

		product, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, productResponse{
			ID:        product.ID.String(),
			Name:      product.Name,
			Price:     product.Price.StringFixed(2),
			UnitCount: product.UnitCount,
			HookURL:   product.HookURL,
			IsActive:  product.IsActive,
		})
	}
}

type updateProductHookRequest struct {
	HookURL string `json:"hook_url" validate:"omitempty,url,max=500"`
}

// UpdateProductHook sets or clears the product's default completion webhook.
// An empty hook_url clears it.
func UpdateProductHook(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid"))
			return
		}

		var req updateProductHookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var hookURL *string
		if req.HookURL != "" {
			hookURL = &req.HookURL
		}

		if err := svc.SetHookURL(ctx, productID, hookURL); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
