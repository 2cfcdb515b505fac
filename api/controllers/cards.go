package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kamishop/backend/api/responses"
	"github.com/kamishop/backend/api/validators"
	"github.com/kamishop/backend/internal/cards"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

type importCardsRequest struct {
	ProductID   string   `json:"product_id" validate:"required,uuid"`
	Secrets     []string `json:"secrets" validate:"required,min=1,max=5000"`
	IsRecurring bool     `json:"is_recurring"`
}

// ImportCards loads a batch of card secrets as unsold stock for a product.
func ImportCards(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req importCardsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid"))
			return
		}

		count, err := svc.ImportCards(ctx, cards.ImportInput{
			ProductID:   productID,
			Secrets:     req.Secrets,
			IsRecurring: req.IsRecurring,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"imported": count})
	}
}

// ProductStock reports how many unsold cards a product has left.
func ProductStock(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid"))
			return
		}

		count, err := svc.AvailableCount(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"available": count})
	}
}
