package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured site origins to call the API with credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = allowedOrigins
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID", "X-Client-Fingerprint"}
	cfg.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Remaining", "Content-Disposition"}
	cfg.AllowCredentials = true
	cfg.MaxAge = 24 * time.Hour
	return cors.New(cfg)
}
