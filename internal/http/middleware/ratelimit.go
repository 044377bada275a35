package middleware

import (
	"net/http"
	"strconv"
	"time"

	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RetryAfter is the cool-down the site shows after a rejected submission.
const RetryAfter = 5 * time.Second

// ClientFingerprint hashes the client's browser traits and address.
func ClientFingerprint(c *gin.Context) string {
	return ratelimit.Fingerprint(
		c.Request.UserAgent(),
		c.GetHeader("Accept-Language"),
		c.GetHeader("X-Client-Fingerprint"),
		c.ClientIP(),
	)
}

// RateLimit applies p per client and reports the remaining allowance.
func RateLimit(l guard.Limiter, p ratelimit.Policy, sec guard.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fp := ClientFingerprint(c)
		res := l.Check(ratelimit.Identifier(fp, p.Action), p)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed {
			c.Next()
			return
		}
		if sec != nil {
			sec.Log(models.SecurityEvent{
				Type:     models.EventRateLimitExceeded,
				Severity: models.SeverityMedium,
				Details: map[string]any{
					"action": p.Action,
					"path":   c.Request.URL.Path,
				},
				Fingerprint: fp,
				UserAgent:   c.Request.UserAgent(),
			})
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":          "too many requests, try again later",
			"code":           "rate_limited",
			"retry_after_ms": RetryAfter.Milliseconds(),
			"request_id":     GetRequestID(c),
		})
	}
}
