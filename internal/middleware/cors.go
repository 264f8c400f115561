package middleware

import (
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Admin-Token",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining, Content-Disposition",
		AllowCredentials: false,
	})
}
