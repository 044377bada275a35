package handlers

import (
	"net/http"

	"leadengine/internal/repositories"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/security-logs
func ListSecurityLogs(c *gin.Context) {
	repo := repositories.SecurityLogRepository{DB: current().DB}
	events, err := repo.List(c.Request.Context(), c.Query("event_type"), c.Query("severity"), queryInt(c, "limit", 100))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
