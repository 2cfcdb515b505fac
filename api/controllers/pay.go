package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kamishop/backend/api/responses"
	"github.com/kamishop/backend/api/validators"
	"github.com/kamishop/backend/internal/orders"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

type payCallbackRequest struct {
	PaidAmount string `json:"paid_amount" validate:"required"`
	TradeNo    string `json:"trade_no" validate:"omitempty,max=190"`
}

// PayCallback is the gateway-facing completion endpoint. Duplicate callbacks
// for an already-settled order are acknowledged as success so gateways stop
// retrying.
func PayCallback(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderSN := chi.URLParam(r, "orderSN")

		var req payCallbackRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		paidAmount, err := decimal.NewFromString(req.PaidAmount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must be a decimal string"))
			return
		}

		if err := svc.CompleteOrder(ctx, orderSN, paidAmount); err != nil {
			if errors.Is(err, orders.ErrAlreadyPaid) {
				responses.WriteSuccess(w, map[string]string{"status": "success"})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "success"})
	}
}
