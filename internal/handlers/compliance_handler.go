package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/middleware"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// ComplianceHandler handles compliance check requests and their history.
type ComplianceHandler struct {
	service services.ComplianceService
}

// NewComplianceHandler creates a new ComplianceHandler instance.
func NewComplianceHandler(service services.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{
		service: service,
	}
}

// CheckRequest is the body of the compliance check endpoints.
// ComplianceLevel is ignored by the direct check.
type CheckRequest struct {
	ComplianceLevel string                `json:"compliance_level"`
	ProjectDetails  models.ProjectDetails `json:"project_details"`
	PropertyID      int64                 `json:"property_id" binding:"required,gt=0"`
	PermitTypeID    int64                 `json:"permit_type_id" binding:"required,gt=0"`
}

// HistoryRequest represents the query parameters for the history endpoint.
type HistoryRequest struct {
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

// HistoryResponse lists recorded checks for a property, newest first.
type HistoryResponse struct {
	Checks     []HistoryEntry `json:"checks"`
	PropertyID int64          `json:"propertyId"`
	Count      int            `json:"count"`
}

// HistoryEntry is a recorded check without its full report.
type HistoryEntry struct {
	CreatedAt     string                 `json:"createdAt"`
	Level         models.ComplianceLevel `json:"complianceLevel"`
	OverallStatus models.OverallStatus   `json:"overallStatus"`
	ID            uuid.UUID              `json:"id"`
	PermitTypeID  int64                  `json:"permitTypeId"`
}

// Check handles POST /api/v1/compliance/check endpoint.
// It always answers with a report; collaborator failures show up as
// degraded sections instead of an error response.
func (h *ComplianceHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing compliance check", map[string]interface{}{
			"property_id":    req.PropertyID,
			"permit_type_id": req.PermitTypeID,
			"level":          req.ComplianceLevel,
		})
	}

	report, err := h.service.Check(c.Request.Context(), req.PropertyID, req.PermitTypeID, req.ProjectDetails, req.ComplianceLevel)
	if err != nil {
		respondError(c, err, "Failed to run compliance check")
		return
	}

	c.JSON(http.StatusOK, report)
}

// Direct handles POST /api/v1/compliance/direct endpoint.
func (h *ComplianceHandler) Direct(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	result, err := h.service.DirectCheck(c.Request.Context(), req.PropertyID, req.PermitTypeID, req.ProjectDetails)
	if err != nil {
		respondError(c, err, "Failed to run direct compliance check")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCheck handles GET /api/v1/compliance/checks/:id endpoint.
func (h *ComplianceHandler) GetCheck(c *gin.Context) {
	id, ok := uuidParam(c, "id", "check")
	if !ok {
		return
	}

	report, err := h.service.GetCheck(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query compliance check")
		return
	}

	c.JSON(http.StatusOK, report)
}

// History handles GET /api/v1/properties/:id/compliance-history endpoint.
func (h *ComplianceHandler) History(c *gin.Context) {
	propertyID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	records, err := h.service.History(c.Request.Context(), propertyID, req.Limit)
	if err != nil {
		respondError(c, err, "Failed to list compliance history")
		return
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, HistoryEntry{
			ID:            rec.ID,
			PermitTypeID:  rec.PermitTypeID,
			Level:         rec.Level,
			OverallStatus: rec.OverallStatus,
			CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, HistoryResponse{
		PropertyID: propertyID,
		Checks:     entries,
		Count:      len(entries),
	})
}
