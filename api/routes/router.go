package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ankushm/storefront-backend/api/controllers"
	"github.com/ankushm/storefront-backend/api/middleware"
	"github.com/ankushm/storefront-backend/internal/auth"
	"github.com/ankushm/storefront-backend/internal/cart"
	"github.com/ankushm/storefront-backend/internal/catalog"
	"github.com/ankushm/storefront-backend/internal/orders"
	"github.com/ankushm/storefront-backend/pkg/auth/session"
	"github.com/ankushm/storefront-backend/pkg/config"
	"github.com/ankushm/storefront-backend/pkg/db"
	"github.com/ankushm/storefront-backend/pkg/logger"
	"github.com/ankushm/storefront-backend/pkg/metrics"
	pkgredis "github.com/ankushm/storefront-backend/pkg/redis"
	"github.com/ankushm/storefront-backend/pkg/storage/gcs"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     db.Pinger
	RedisPinger  pkgredis.Pinger
	RateLimiter  RateLimiter
	Idempotency  pkgredis.IdempotencyStore
	Revocations  session.RevocationChecker
	HTTPMetrics  *metrics.HTTPMetrics
	PromGatherer prometheus.Gatherer

	AuthService    auth.Service
	CatalogService catalog.Service
	CartService    cart.Service
	OrdersService  orders.Service
	ImageUploader  gcs.Uploader
}

// RateLimiter is the counter surface the auth throttling middleware needs.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.CatalogService, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.CatalogService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).
				Post("/register", controllers.AuthRegister(deps.AuthService, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).
				Post("/login", controllers.AuthLogin(deps.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Revocations, logg))
				r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
				r.Get("/verify", controllers.AuthVerify(deps.AuthService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Revocations, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.CartService, logg))
				r.Post("/", controllers.AddToCart(deps.CartService, logg))
				r.Put("/{lineId}", controllers.UpdateCartLine(deps.CartService, logg))
				r.Delete("/{lineId}", controllers.RemoveCartLine(deps.CartService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.Idempotency(deps.Idempotency, cfg.Orders.IdempotencyTTL, logg)).
					Post("/", controllers.PlaceOrder(deps.OrdersService, logg))
				r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.OrdersService, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))
				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminListProducts(deps.CatalogService, logg))
					r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
					r.Put("/{productId}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
					r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.CatalogService, logg))
					r.Post("/{productId}/image", controllers.AdminUploadProductImage(
						deps.CatalogService, deps.ImageUploader, cfg.Images.MaxUploadMB, logg))
				})
			})
		})
	})

	return r
}
