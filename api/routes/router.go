package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/shopward-backend/api/controllers"
	webhookcontrollers "github.com/shopward/shopward-backend/api/controllers/webhooks"
	"github.com/shopward/shopward-backend/api/middleware"
	"github.com/shopward/shopward-backend/internal/audit"
	"github.com/shopward/shopward-backend/internal/auth"
	checkoutsvc "github.com/shopward/shopward-backend/internal/checkout"
	"github.com/shopward/shopward-backend/internal/notifications"
	"github.com/shopward/shopward-backend/internal/orders"
	"github.com/shopward/shopward-backend/internal/payments"
	"github.com/shopward/shopward-backend/internal/products"
	stripewebhook "github.com/shopward/shopward-backend/internal/webhooks/stripe"
	"github.com/shopward/shopward-backend/pkg/config"
	"github.com/shopward/shopward-backend/pkg/logger"
	"github.com/shopward/shopward-backend/pkg/metrics"
	"github.com/shopward/shopward-backend/pkg/redis"
	"github.com/shopward/shopward-backend/pkg/stripe"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics

	DBPinger    controllers.Pinger
	RedisClient *redis.Client

	AuthService          auth.Service
	ProductsService      products.Service
	CheckoutService      checkoutsvc.Service
	OrdersService        orders.Service
	PaymentsService      payments.Service
	NotificationsService notifications.Service
	AuditService         audit.Service

	StripeClient       *stripe.Client
	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A nil *redis.Client must stay a nil interface so the middleware
	// no-op paths kick in instead of panicking on a typed nil.
	var redisPinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	rateLimit := middleware.RateLimit(cfg.RateLimit, nil, logg)
	if deps.RedisClient != nil {
		redisPinger = deps.RedisClient
		idempotencyStore = deps.RedisClient
		rateLimit = middleware.RateLimit(cfg.RateLimit, deps.RedisClient, logg)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, redisPinger))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(rateLimit)
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Use(middleware.StoreContext(logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.ProductsService, logg))
			r.Post("/", controllers.CreateProduct(deps.ProductsService, logg))
			r.Get("/{productId}", controllers.GetProduct(deps.ProductsService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(deps.ProductsService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(deps.ProductsService, logg))
			r.Post("/{productId}/inventory", controllers.AdjustInventory(deps.ProductsService, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.ProductsService, logg))
			r.Post("/", controllers.CreateCategory(deps.ProductsService, logg))
			r.Delete("/{categoryId}", controllers.DeleteCategory(deps.ProductsService, logg))
		})
		r.Route("/brands", func(r chi.Router) {
			r.Get("/", controllers.ListBrands(deps.ProductsService, logg))
			r.Post("/", controllers.CreateBrand(deps.ProductsService, logg))
			r.Delete("/{brandId}", controllers.DeleteBrand(deps.ProductsService, logg))
		})

		r.Post("/cart/validate", controllers.ValidateCart(deps.CheckoutService, logg))
		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))
		r.Post("/checkout/estimate", controllers.CheckoutEstimate(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
			r.Get("/export", controllers.ExportOrders(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrdersService, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(deps.OrdersService, logg))
			r.With(middleware.RequireRoles(logg, "owner", "admin")).
				Post("/{orderId}/refund", controllers.RefundOrder(deps.PaymentsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.NotificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.NotificationsService, logg))
		})

		r.With(middleware.RequireRoles(logg, "owner", "admin")).
			Get("/audit-logs", controllers.ListAuditLogs(deps.AuditService, logg))
	})

	return r
}
