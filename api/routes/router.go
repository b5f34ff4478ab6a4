package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Params bundle what the router hands to controllers.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions controllers.Sessions
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	// Readiness maps a dependency name to its probe.
	Readiness map[string]controllers.Pinger
}

func NewRouter(p Params) http.Handler {
	cfg, logg, sessions := p.Config, p.Logger, p.Sessions
	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Session(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitPolicy{RPS: cfg.RateLimit.RPS, Burst: cfg.RateLimit.Burst}, logg))

		r.Post("/sessions", controllers.SessionLogin(sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))

			r.Delete("/sessions", controllers.SessionLogout(sessions, logg))
			r.Get("/me", controllers.SessionMe(sessions, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(sessions, logg))
				r.Get("/search", controllers.ProductSearch(sessions, logg))
				r.Get("/{id}", controllers.ProductGet(sessions, logg))
			})
			r.Get("/search-history", controllers.SearchHistory(sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(sessions, logg))
				r.Delete("/", controllers.CartClear(sessions, logg))
				r.Post("/items", controllers.CartAddItem(sessions, logg))
				r.Put("/items/{id}", controllers.CartUpdateItem(sessions, logg))
				r.Delete("/items/{id}", controllers.CartRemoveItem(sessions, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutBegin(sessions, logg))
				r.Get("/", controllers.CheckoutGet(sessions, logg))
				r.Put("/delivery", controllers.CheckoutDelivery(sessions, logg))
				r.Put("/address", controllers.CheckoutAddress(sessions, logg))
				r.Put("/payment", controllers.CheckoutPayment(sessions, logg))
				r.Post("/promo", controllers.CheckoutApplyPromo(sessions, logg))
				r.Delete("/promo", controllers.CheckoutRemovePromo(sessions, logg))
				r.Post("/back", controllers.CheckoutBack(sessions, logg))
				r.Post("/submit", controllers.CheckoutSubmit(sessions, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(sessions, logg))
				r.Get("/track/{tracking}", controllers.OrderTrack(sessions, logg))
				r.Get("/{id}", controllers.OrderGet(sessions, logg))
				r.Post("/{id}/cancel", controllers.OrderCancel(sessions, logg))
				r.Post("/{id}/repeat", controllers.OrderRepeat(sessions, logg))
			})

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", controllers.WalletBalance(sessions, logg))
				r.Post("/deposit", controllers.WalletDeposit(sessions, logg))
				r.Get("/transactions", controllers.WalletTransactions(sessions, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(sessions, logg))
				r.Post("/cart", controllers.WishlistAddToCart(sessions, logg))
				r.Post("/{productID}", controllers.WishlistAdd(sessions, logg))
				r.Delete("/{productID}", controllers.WishlistRemove(sessions, logg))
			})
		})
	})

	return r
}
