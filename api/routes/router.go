package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arjundesai/medikart-backend/api/controllers"
	"github.com/arjundesai/medikart-backend/api/middleware"
	cartsvc "github.com/arjundesai/medikart-backend/internal/cart"
	ordersvc "github.com/arjundesai/medikart-backend/internal/orders"
	"github.com/arjundesai/medikart-backend/pkg/config"
	"github.com/arjundesai/medikart-backend/pkg/db"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	cartService cartsvc.Service,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.RequireCustomer(logg))
		r.Get("/", controllers.CartFetch(cartService, logg))
		r.Delete("/", controllers.CartClear(cartService, logg))
		r.Post("/items", controllers.CartAddItem(cartService, logg))
		r.Delete("/items/{medicineId}", controllers.CartRemoveItem(cartService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.RequireCustomer(logg))
		r.Post("/", controllers.OrderCreate(ordersService, logg))
		r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		r.Post("/{orderId}/response", controllers.OrderRespond(ordersService, logg))
		r.Post("/{orderId}/accept", controllers.QuoteAccept(ordersService, logg))
		r.Post("/{orderId}/convert", controllers.OrderConvert(ordersService, logg))
	})

	r.Route("/api/v1/pharmacy/orders", func(r chi.Router) {
		r.Use(middleware.RequirePharmacy(logg))
		r.Get("/", controllers.PharmacyOrderList(ordersService, logg))
		r.Post("/{orderId}/quote", controllers.QuoteSubmit(ordersService, logg))
		r.Post("/{orderId}/response", controllers.OrderRespond(ordersService, logg))
	})

	return r
}
