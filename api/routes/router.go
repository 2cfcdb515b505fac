package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamishop/backend/api/controllers"
	"github.com/kamishop/backend/api/middleware"
	"github.com/kamishop/backend/internal/cards"
	"github.com/kamishop/backend/internal/orders"
	"github.com/kamishop/backend/internal/products"
	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/redis"
)

// NewRouter wires the HTTP surface: checkout intake, the gateway callback,
// the polling read, catalog and card stock management, and operational
// endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	ordersSvc orders.Service,
	cardsSvc cards.Service,
	productsSvc products.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, dbP, redisP))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", controllers.CreateOrder(ordersSvc, logg))
		r.Get("/orders/{orderSN}/status", controllers.OrderStatus(ordersSvc, logg))
		r.Post("/pay/callback/{orderSN}", controllers.PayCallback(ordersSvc, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/cards/import", controllers.ImportCards(cardsSvc, logg))
			r.Post("/products", controllers.CreateProduct(productsSvc, logg))
			r.Put("/products/{productID}/hook", controllers.UpdateProductHook(productsSvc, logg))
			r.Get("/products/{productID}/stock", controllers.ProductStock(cardsSvc, logg))
		})
	})

	return r
}
