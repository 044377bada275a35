package handlers

import (
	"net/http"

	"leadengine/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func propertyFilter(c *gin.Context) models.PropertyFilter {
	featured := queryBool(c, "featured")
	return models.PropertyFilter{
		Type:      c.Query("type"),
		Operation: c.Query("operation"),
		Locality:  c.Query("locality"),
		MinPrice:  queryFloat(c, "min_price"),
		MaxPrice:  queryFloat(c, "max_price"),
		Featured:  featured != nil && *featured,
		Search:    c.Query("q"),
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	}
}

// GET /api/properties
func ListProperties(c *gin.Context) {
	out, err := propertyService(c).Search(c.Request.Context(), propertyFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/properties/:id
func GetProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := propertyService(c).Get(c.Request.Context(), id, false)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/admin/properties
func AdminListProperties(c *gin.Context) {
	f := propertyFilter(c)
	if active := queryBool(c, "active"); active != nil && *active {
		f.ActiveOnly = true
	}
	out, err := propertyService(c).List(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// POST /api/admin/properties
func CreateProperty(c *gin.Context) {
	var p models.Property
	if !BindJSONOrError(c, &p) {
		return
	}
	created, err := propertyService(c).Create(c.Request.Context(), p)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /api/admin/properties/:id
func UpdateProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p models.Property
	if !BindJSONOrError(c, &p) {
		return
	}
	updated, err := propertyService(c).Update(c.Request.Context(), id, p)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/admin/properties/:id
func DeleteProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := propertyService(c).Delete(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "property deactivated", "id": id})
}

type featuredRequest struct {
	Featured *bool `json:"featured" binding:"required"`
}

// PUT /api/admin/properties/:id/featured
func SetPropertyFeatured(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req featuredRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if err := propertyService(c).SetFeatured(c.Request.Context(), id, *req.Featured); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "featured": *req.Featured})
}

// GET /api/admin/properties/stats
func PropertyStats(c *gin.Context) {
	stats, err := propertyService(c).Stats(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
