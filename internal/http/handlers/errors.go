package handlers

import (
	"errors"
	"net/http"

	"leadengine/internal/domain"
	"leadengine/internal/http/middleware"
	"leadengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var (
		ve domain.ValidationError
		ie domain.InvalidInputError
	)
	switch {
	case errors.As(err, &ve):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), gin.H{"field": ve.Field})
	case errors.As(err, &ie):
		respondError(c, http.StatusBadRequest, "invalid_input", err.Error(), gin.H{"field": ie.Field})
	case domain.IsCaptchaRequired(err):
		respondError(c, http.StatusBadRequest, "captcha_required", err.Error(), nil)
	case domain.IsConsentRequired(err):
		respondError(c, http.StatusBadRequest, "consent_required", err.Error(), nil)
	case domain.IsRateLimited(err):
		respondError(c, http.StatusTooManyRequests, "rate_limited", err.Error(),
			gin.H{"retry_after_ms": middleware.RetryAfter.Milliseconds()})
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}
