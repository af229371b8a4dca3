package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/permits/api/internal/middleware"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// PropertyHandler handles property lookup requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{
		service: service,
	}
}

// SearchRequest represents the query parameters for the search endpoint.
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
}

// SearchResponse represents the response for the search endpoint.
type SearchResponse struct {
	Query      string            `json:"query"`
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// PropertyResponse wraps a single property.
type PropertyResponse struct {
	Property *models.Property `json:"property"`
}

// Search handles GET /api/v1/properties/search endpoint.
// It matches the query against addresses and tax lots.
func (h *PropertyHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing property search", map[string]interface{}{
			"query": req.Query,
		})
	}

	properties, err := h.service.SearchProperties(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, err, "Failed to search properties")
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:      req.Query,
		Properties: properties,
		Count:      len(properties),
	})
}

// Get handles GET /api/v1/properties/:id endpoint.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	property, err := h.service.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query property")
		return
	}

	c.JSON(http.StatusOK, PropertyResponse{Property: property})
}
