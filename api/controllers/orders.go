package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamishop/backend/api/responses"
	"github.com/kamishop/backend/api/validators"
	"github.com/kamishop/backend/internal/orders"
	pkgerrors "github.com/kamishop/backend/pkg/errors"
	"github.com/kamishop/backend/pkg/logger"
)

type createOrderRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid"`
	Email           string `json:"email" validate:"required,email"`
	PayChannelID    string `json:"pay_channel_id" validate:"omitempty,uuid"`
	Source          string `json:"source" validate:"omitempty,max=64"`
	RechargeAccount string `json:"recharge_account" validate:"omitempty,max=190"`
	Info            string `json:"info" validate:"omitempty,max=2000"`
}

type createOrderResponse struct {
	OrderSN     string `json:"order_sn"`
	Status      string `json:"status"`
	ActualPrice string `json:"actual_price"`
	ExpiresAt   string `json:"expires_at"`
}

// CreateOrder accepts a checkout request and opens a wait_pay order. Free
// products settle immediately; paid ones wait for the gateway callback.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a uuid"))
			return
		}

		input := orders.CreateOrderInput{
			ProductID:       productID,
			Email:           req.Email,
			Source:          req.Source,
			RechargeAccount: req.RechargeAccount,
			Info:            req.Info,
		}
		if req.PayChannelID != "" {
			channelID, err := uuid.Parse(req.PayChannelID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "pay channel id must be a uuid"))
				return
			}
			input.PayChannelID = &channelID
		}

		order, err := svc.CreateOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if order.ActualPrice.IsZero() {
			if err := svc.CompleteOrder(ctx, order.OrderSN, decimal.Zero); err != nil {
				// The order stands; the client sees wait_pay and can retry
				// through the normal flow.
				logg.Error(logg.WithOrderSN(ctx, order.OrderSN), "free order settlement failed", err)
			} else {
				view, err := svc.StatusByOrderSN(ctx, order.OrderSN)
				if err == nil {
					order.Status = view.Status
				}
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createOrderResponse{
			OrderSN:     order.OrderSN,
			Status:      order.Status.String(),
			ActualPrice: order.ActualPrice.StringFixed(2),
			ExpiresAt:   order.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// OrderStatus serves the payment-result polling page.
func OrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderSN := chi.URLParam(r, "orderSN")

		view, err := svc.StatusByOrderSN(ctx, orderSN)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				responses.WriteError(ctx, logg, w, orders.ErrOrderNotFound)
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
