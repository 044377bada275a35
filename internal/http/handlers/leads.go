package handlers

import (
	"net/http"
	"strings"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/http/middleware"
	"leadengine/internal/services"

	"github.com/gin-gonic/gin"
)

// form keys that steer the submission rather than describe the lead
var formMetaKeys = []string{"type", "captcha_token", "accepts_terms", "source", "property_id", "extras"}

// POST /api/leads
func CreateLead(c *gin.Context) {
	var body map[string]any
	if !BindJSONOrError(c, &body) {
		return
	}
	sub := submissionFromBody(c, body)
	sub.Type = strings.TrimSpace(asString(body["type"]))

	lead, err := leadService(c).Create(c.Request.Context(), sub)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": lead.ID, "lead": lead})
}

// submissionFromBody splits a flat form post into guard state and fields.
func submissionFromBody(c *gin.Context, body map[string]any) services.LeadSubmission {
	fields := make(map[string]any, len(body))
	for k, v := range body {
		fields[k] = v
	}
	for _, k := range formMetaKeys {
		delete(fields, k)
	}

	sub := services.LeadSubmission{
		Source:    asString(body["source"]),
		IPAddress: c.ClientIP(),
		Form: guard.FormState{
			CaptchaToken: asString(body["captcha_token"]),
			AcceptsTerms: asBool(body["accepts_terms"]),
			Fingerprint:  middleware.ClientFingerprint(c),
			UserAgent:    c.Request.UserAgent(),
			Fields:       fields,
		},
	}
	if id, ok := body["property_id"].(float64); ok && id > 0 {
		pid := int64(id)
		sub.PropertyID = &pid
	}
	if raw, ok := body["extras"].([]any); ok {
		for _, e := range raw {
			if s, ok := e.(string); ok {
				sub.Extras = append(sub.Extras, s)
			}
		}
	}
	return sub
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "on" || b == "1"
	}
	return false
}

// GET /api/admin/leads
func ListLeads(c *gin.Context) {
	f := models.LeadFilter{
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		AdvisorID: int64(queryInt(c, "advisor_id", 0)),
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
	}
	page := domain.Pagination{Page: queryInt(c, "page", 1), PageSize: queryInt(c, "page_size", 50)}

	leads, page, err := leadService(c).List(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": leads, "pagination": page})
}

// GET /api/admin/leads/:id
func GetLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	lead, err := leadService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// PUT /api/admin/leads/:id
func UpdateLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var u models.LeadUpdate
	if !BindJSONOrError(c, &u) {
		return
	}
	lead, err := leadService(c).Update(c.Request.Context(), id, u)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// POST /api/admin/leads/:id/assign
func AssignLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	advisor, err := leadService(c).Assign(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead_id": id, "advisor": advisor})
}
