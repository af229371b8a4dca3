package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/permits/api/internal/middleware"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// PermitHandler handles permit type and fee requests.
type PermitHandler struct {
	service services.PermitService
}

// NewPermitHandler creates a new PermitHandler instance.
func NewPermitHandler(service services.PermitService) *PermitHandler {
	return &PermitHandler{
		service: service,
	}
}

// PermitTypesResponse lists the active permit types.
type PermitTypesResponse struct {
	PermitTypes []models.PermitType `json:"permitTypes"`
	Count       int                 `json:"count"`
}

// PermitTypeResponse wraps a single permit type.
type PermitTypeResponse struct {
	PermitType *models.PermitType `json:"permitType"`
}

// FeeRequest is the body of POST /api/v1/fees/calculate.
type FeeRequest struct {
	ProjectDetails models.ProjectDetails `json:"project_details"`
	PermitTypeID   int64                 `json:"permit_type_id" binding:"required,gt=0"`
}

// List handles GET /api/v1/permit-types endpoint.
func (h *PermitHandler) List(c *gin.Context) {
	permitTypes, err := h.service.ListPermitTypes(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list permit types")
		return
	}
	if permitTypes == nil {
		permitTypes = []models.PermitType{}
	}

	c.JSON(http.StatusOK, PermitTypesResponse{
		PermitTypes: permitTypes,
		Count:       len(permitTypes),
	})
}

// Get handles GET /api/v1/permit-types/:id endpoint.
func (h *PermitHandler) Get(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	permitType, err := h.service.GetPermitType(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query permit type")
		return
	}

	c.JSON(http.StatusOK, PermitTypeResponse{PermitType: permitType})
}

// Requirements handles GET /api/v1/permit-types/:id/requirements endpoint.
func (h *PermitHandler) Requirements(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	requirements, err := h.service.GetRequirements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query permit requirements")
		return
	}

	c.JSON(http.StatusOK, requirements)
}

// CalculateFee handles POST /api/v1/fees/calculate endpoint.
func (h *PermitHandler) CalculateFee(c *gin.Context) {
	var req FeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Calculating permit fee", map[string]interface{}{
			"permit_type_id": req.PermitTypeID,
		})
	}

	quote, err := h.service.CalculateFee(c.Request.Context(), req.PermitTypeID, req.ProjectDetails)
	if err != nil {
		respondError(c, err, "Failed to calculate fee")
		return
	}

	c.JSON(http.StatusOK, quote)
}
