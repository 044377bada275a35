package handlers

import (
	"net/http"

	intdb "leadengine/internal/db"

	"github.com/gin-gonic/gin"
)

// tables the service cannot run without
var requiredTables = []string{"leads", "valuations", "pricing_rules", "properties", "security_logs", "webhook_events"}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "leadengine running"})
}

func DBCheck(c *gin.Context) {
	db := current().DB
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
		return
	}
	if err := db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database unreachable: " + err.Error()})
		return
	}
	missing := []string{}
	for _, t := range requiredTables {
		if !intdb.HasTable(c.Request.Context(), db, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schema incomplete", "missing_tables": missing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database OK", "tables": requiredTables})
}
