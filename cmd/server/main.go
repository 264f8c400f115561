package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/reporting"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set, billing webhooks will be rejected")
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.WithDatabase(database.DB)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	publisher := newPublisher(cfg)
	reportLimiter, redisClient := newReportLimiter(cfg)

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	entitlementService := services.NewEntitlementService(database.DB, authService, publisher)
	billingService := services.NewBillingService(database.DB, cfg, publisher)
	checkoutService := services.NewCheckoutService(database.DB, cfg)
	searchService := services.NewSearchService(database.DB, entitlementService)

	var generator services.ReportGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewChatCompletionClient(cfg)
	} else {
		slog.Warn("OPENAI_API_KEY not set, reports will use placeholder data")
	}
	reportService := services.NewReportService(database.DB, generator, entitlementService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(database.Ping)
	webhookHandler := handlers.NewWebhookHandler(billingService)
	reportHandler := handlers.NewReportHandler(reportService, reporting.NewPDFGenerator())
	entitlementHandler := handlers.NewEntitlementHandler(entitlementService)
	billingHandler := handlers.NewBillingHandler(checkoutService)
	searchHandler := handlers.NewSearchHandler(searchService)
	adminHandler := handlers.NewAdminHandler(billingService, entitlementService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, database.DB, reportLimiter,
		authHandler, healthHandler, webhookHandler, reportHandler,
		entitlementHandler, billingHandler, searchHandler, adminHandler,
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if err := publisher.Close(); err != nil {
		slog.Error("event publisher close error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// newPublisher connects to RabbitMQ when configured. Entitlement events are
// best effort, so a broker outage at boot downgrades to no publishing.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.Noop{}
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		slog.Warn("rabbitmq unavailable, entitlement events disabled", "error", err)
		return events.Noop{}
	}
	slog.Info("entitlement events enabled", "exchange", cfg.EventsExchange)
	return p
}

// newReportLimiter prefers Redis so the cap holds across replicas.
func newReportLimiter(cfg *config.Config) (ratelimit.Limiter, *redis.Client) {
	memory := ratelimit.NewMemoryLimiter(cfg.ReportRateLimit, cfg.ReportRateWindow)
	if cfg.RedisURL == "" {
		return memory, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Warn("invalid REDIS_URL, using in-memory rate limiting", "error", err)
		return memory, nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, using in-memory rate limiting", "error", err)
		_ = client.Close()
		return memory, nil
	}

	slog.Info("redis rate limiting enabled")
	return ratelimit.NewRedisLimiter(client, cfg.RateLimitPrefix, "report", cfg.ReportRateLimit, cfg.ReportRateWindow), client
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Code:    "http_error",
		Message: message,
	})
}
