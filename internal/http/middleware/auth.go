package middleware

import (
	"net/http"
	"strings"

	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/services"

	"github.com/gin-gonic/gin"
)

// RequireAdmin validates the bearer token and stores its role as userRole.
// Rejected requests are reported as unauthorized_access.
func RequireAdmin(secret []byte, sec guard.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			reject(c, sec, "auth_not_configured")
			return
		}
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			reject(c, sec, "missing_token")
			return
		}
		claims, err := services.ParseToken(secret, raw)
		if err != nil {
			reject(c, sec, err.Error())
			return
		}
		c.Set("userRole", claims.Role)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func reject(c *gin.Context, sec guard.SecurityLogger, reason string) {
	if sec != nil {
		sec.Log(models.SecurityEvent{
			Type:     models.EventUnauthorizedAccess,
			Severity: models.SeverityMedium,
			Details: map[string]any{
				"reason": reason,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
			Fingerprint: ClientFingerprint(c),
			UserAgent:   c.Request.UserAgent(),
		})
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "unauthorized",
		"request_id": GetRequestID(c),
	})
}
