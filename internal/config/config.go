package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Stripe
	StripeSecretKey        string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	StripePriceIDs         map[string]string
	FrontendURL            string

	// AI provider (chat completions compatible)
	OpenAIAPIKey   string
	OpenAIAPIURL   string
	OpenAIModel    string
	AITimeout      time.Duration
	AIMaxRetries   int
	AIRetryBackoff time.Duration

	// Rate limiting
	RedisURL         string
	RateLimitPrefix  string
	ReportRateLimit  int
	ReportRateWindow time.Duration

	// Events
	RabbitMQURL    string
	EventsExchange string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Logging
	LogRetention time.Duration

	// Server
	Port        string
	CORSOrigins string
}

// Load reads configuration from the environment, picking up a .env file
// in the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "reliability_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "24h"), 24*time.Hour),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: parseDuration(getEnv("STRIPE_WEBHOOK_TOLERANCE", "5m"), 5*time.Minute),
		StripePriceIDs: map[string]string{
			"premium-monthly":      getEnv("STRIPE_PRICE_PREMIUM_MONTHLY", ""),
			"premium-yearly":       getEnv("STRIPE_PRICE_PREMIUM_YEARLY", ""),
			"professional-monthly": getEnv("STRIPE_PRICE_PROFESSIONAL_MONTHLY", ""),
			"professional-yearly":  getEnv("STRIPE_PRICE_PROFESSIONAL_YEARLY", ""),
		},
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL:   getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:      parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second),
		AIMaxRetries:   parseInt(getEnv("AI_MAX_RETRIES", "2"), 2),
		AIRetryBackoff: parseDuration(getEnv("AI_RETRY_BACKOFF", "500ms"), 500*time.Millisecond),

		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimitPrefix:  getEnv("RATE_LIMIT_PREFIX", "reliability:rate_limit"),
		ReportRateLimit:  parseInt(getEnv("REPORT_RATE_LIMIT", "10"), 10),
		ReportRateWindow: parseDuration(getEnv("REPORT_RATE_WINDOW", "60s"), time.Minute),

		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "reliability.entitlements"),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// PriceID returns the Stripe price configured for a plan key such as
// "premium-monthly".
func (c *Config) PriceID(planKey string) string {
	return c.StripePriceIDs[strings.ToLower(strings.TrimSpace(planKey))]
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
