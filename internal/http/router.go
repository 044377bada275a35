package api

import (
	"log/slog"
	stdhttp "net/http"

	intconfig "leadengine/internal/config"
	"leadengine/internal/guard"
	h "leadengine/internal/http/handlers"
	"leadengine/internal/http/middleware"
	"leadengine/internal/ratelimit"
	"leadengine/internal/services"

	"github.com/gin-gonic/gin"
)

// NewRouter mounts the public site API and the JWT protected admin API.
// limiter and sec are shared with the handlers configured in main.
func NewRouter(env intconfig.Env, limiter guard.Limiter, sec guard.SecurityLogger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		slog.Warn("failed to set trusted proxies", "err", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	apiCalls := middleware.RateLimit(limiter, ratelimit.APICall, sec)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		// Site forms; throttled by the submission guard and the valuation service.
		api.POST("/leads", h.CreateLead)
		api.POST("/valuations/estimate", h.EstimateValuation)
		api.POST("/valuations/:id/contact", h.ContactValuation)

		// Listings
		api.GET("/properties", apiCalls, h.ListProperties)
		api.GET("/properties/:id", apiCalls, h.GetProperty)

		api.POST("/admin/login", h.AdminLogin)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin([]byte(env.JWTSecret), sec), middleware.RequireRoles(services.RoleAdmin))
	{
		leads := admin.Group("/leads")
		leads.GET("", h.ListLeads)
		leads.GET("/:id", h.GetLead)
		leads.PUT("/:id", h.UpdateLead)
		leads.POST("/:id/assign", h.AssignLead)

		valuations := admin.Group("/valuations")
		valuations.GET("", h.ListValuations)
		valuations.GET("/stats", h.ValuationStats)
		valuations.GET("/:id", h.GetValuation)
		valuations.GET("/:id/report.pdf", h.ValuationReportPDF)

		rules := admin.Group("/pricing-rules")
		rules.GET("", h.ListPricingRules)
		rules.GET("/:id", h.GetPricingRule)
		rules.POST("", h.CreatePricingRule)
		rules.PUT("/:id", h.UpdatePricingRule)
		rules.DELETE("/:id", h.DeletePricingRule)

		properties := admin.Group("/properties")
		properties.GET("", h.AdminListProperties)
		properties.GET("/stats", h.PropertyStats)
		properties.POST("", h.CreateProperty)
		properties.PUT("/:id", h.UpdateProperty)
		properties.DELETE("/:id", h.DeleteProperty)
		properties.PUT("/:id/featured", h.SetPropertyFeatured)

		admin.GET("/security-logs", h.ListSecurityLogs)
	}

	return r
}
