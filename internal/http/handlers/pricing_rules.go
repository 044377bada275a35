package handlers

import (
	"net/http"

	"leadengine/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/pricing-rules
func ListPricingRules(c *gin.Context) {
	rules, err := pricingRuleService(c).List(c.Request.Context(), models.PricingRuleFilter{
		PropertyType: c.Query("property_type"),
		Locality:     c.Query("locality"),
		Active:       queryBool(c, "active"),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules})
}

// GET /api/admin/pricing-rules/:id
func GetPricingRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rule, err := pricingRuleService(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// POST /api/admin/pricing-rules
func CreatePricingRule(c *gin.Context) {
	var rule models.PricingRule
	if !BindJSONOrError(c, &rule) {
		return
	}
	created, err := pricingRuleService(c).Create(c.Request.Context(), rule)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/admin/pricing-rules/:id
func UpdatePricingRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var rule models.PricingRule
	if !BindJSONOrError(c, &rule) {
		return
	}
	updated, err := pricingRuleService(c).Update(c.Request.Context(), id, rule)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/admin/pricing-rules/:id
func DeletePricingRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := pricingRuleService(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pricing rule deactivated", "id": id})
}
