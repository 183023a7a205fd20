package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured front-end origins without credentials.
func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  allowedOrigins(cfg.CORSOrigins),
		AllowHeaders:  "Origin, Content-Type, Authorization, Accept",
		AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders: fiber.HeaderXRequestID,
		MaxAge:        600,
	})
}

// allowedOrigins normalises a comma separated list, dropping blanks and
// trailing slashes browsers never send.
func allowedOrigins(raw string) string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			return "*"
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
