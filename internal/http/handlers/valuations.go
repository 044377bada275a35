package handlers

import (
	"net/http"
	"strings"

	"leadengine/internal/domain/models"
	"leadengine/internal/http/middleware"
	"leadengine/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/valuations/estimate
func EstimateValuation(c *gin.Context) {
	var in services.EstimateInput
	if !BindJSONOrError(c, &in) {
		return
	}
	in.Fingerprint = middleware.ClientFingerprint(c)
	in.UserAgent = c.Request.UserAgent()

	v, err := valuationService(c).Estimate(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          v.ID,
		"estimated":   v.EstimatedValue,
		"minimum":     v.MinimumValue,
		"maximum":     v.MaximumValue,
		"currency":    v.Currency,
		"rule_source": v.RuleSource,
	})
}

// POST /api/valuations/:id/contact
func ContactValuation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body map[string]any
	if !BindJSONOrError(c, &body) {
		return
	}
	lead, err := valuationService(c).Contact(c.Request.Context(), id, submissionFromBody(c, body))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": lead.ID, "valuation_id": id})
}

func valuationFilter(c *gin.Context) models.ValuationFilter {
	return models.ValuationFilter{
		PropertyType: c.Query("property_type"),
		Locality:     c.Query("locality"),
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		Limit:        queryInt(c, "limit", 100),
	}
}

// GET /api/admin/valuations
func ListValuations(c *gin.Context) {
	out, err := valuationService(c).List(c.Request.Context(), valuationFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/admin/valuations/stats
func ValuationStats(c *gin.Context) {
	stats, err := valuationService(c).Stats(c.Request.Context(), valuationFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/valuations/:id
func GetValuation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := valuationService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/admin/valuations/:id/report.pdf
func ValuationReportPDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pdf, filename, err := valuationService(c).Report(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
