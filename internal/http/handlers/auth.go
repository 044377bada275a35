package handlers

import (
	"net/http"

	"leadengine/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// POST /api/admin/login
func AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	token, exp, err := authService(c).Login(req.Password, middleware.ClientFingerprint(c), c.Request.UserAgent())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.Unix(),
	})
}
