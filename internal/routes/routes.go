package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	reportLimiter ratelimit.Limiter,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	reportHandler *handlers.ReportHandler,
	entitlementHandler *handlers.EntitlementHandler,
	billingHandler *handlers.BillingHandler,
	searchHandler *handlers.SearchHandler,
	adminHandler *handlers.AdminHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// The Stripe webhook sits ahead of the per-IP limiter: every
	// delivery comes from Stripe's small set of addresses.
	app.Post("/api/webhooks/stripe", webhookHandler.HandleStripe)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	auth.Put("/password", middleware.JWTProtected(cfg), authHandler.ChangePassword)
	auth.Delete("/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Reports: identity is optional and resolved from the body or bearer header.
	api.Post("/reports", middleware.RateLimit("report", reportLimiter), reportHandler.Generate)
	api.Post("/reports/pdf", reportHandler.ExportPDF)

	api.Get("/searches", middleware.JWTProtected(cfg), searchHandler.History)

	api.Get("/entitlements/me", entitlementHandler.Me)
	api.Post("/entitlements/check", entitlementHandler.Check)

	billing := api.Group("/billing", middleware.JWTProtected(cfg))
	billing.Post("/checkout", billingHandler.Checkout)
	billing.Post("/portal", billingHandler.Portal)

	admin := api.Group("/admin", middleware.AdminRequired(db, cfg))
	admin.Get("/webhooks", adminHandler.Webhooks)
	admin.Post("/entitlements/grant", adminHandler.Grant)
}
