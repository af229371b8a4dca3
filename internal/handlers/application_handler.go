package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/permits/api/internal/middleware"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// ApplicationHandler handles permit application requests.
type ApplicationHandler struct {
	service services.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler instance.
func NewApplicationHandler(service services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
	}
}

// CreateApplicationRequest is the body of POST /applications.
type CreateApplicationRequest struct {
	Applicant      models.Applicant      `json:"applicant"`
	ProjectDetails models.ProjectDetails `json:"project_details"`
	PropertyID     int64                 `json:"property_id" binding:"required,gt=0"`
	PermitTypeID   int64                 `json:"permit_type_id" binding:"required,gt=0"`
}

// UpdateApplicationRequest is the body of PATCH /applications/:id.
// Omitted fields are left unchanged.
type UpdateApplicationRequest struct {
	Status      *string `json:"status"`
	FeePaid     *bool   `json:"fee_paid"`
	ReviewNotes *string `json:"review_notes"`
}

// ListApplicationsRequest represents the query parameters for the listing.
type ListApplicationsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// ApplicationCheckRequest is the optional body of the compliance check endpoint.
type ApplicationCheckRequest struct {
	ComplianceLevel string `json:"compliance_level"`
}

// Create handles POST /api/v1/applications endpoint.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	app, err := h.service.Create(c.Request.Context(), services.NewApplication{
		Applicant:    req.Applicant,
		Details:      req.ProjectDetails,
		PropertyID:   req.PropertyID,
		PermitTypeID: req.PermitTypeID,
	})
	if err != nil {
		respondError(c, err, "Failed to create application")
		return
	}

	c.JSON(http.StatusCreated, app)
}

// List handles GET /api/v1/applications endpoint.
func (h *ApplicationHandler) List(c *gin.Context) {
	var req ListApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	page, err := h.service.List(c.Request.Context(), req.Status, req.Page, req.PageSize)
	if err != nil {
		respondError(c, err, "Failed to list applications")
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get handles GET /api/v1/applications/:id endpoint.
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "application")
	if !ok {
		return
	}

	app, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to query application")
		return
	}

	c.JSON(http.StatusOK, app)
}

// Update handles PATCH /api/v1/applications/:id endpoint.
func (h *ApplicationHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "application")
	if !ok {
		return
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	app, err := h.service.Update(c.Request.Context(), id, services.ApplicationUpdate{
		Status:      req.Status,
		FeePaid:     req.FeePaid,
		ReviewNotes: req.ReviewNotes,
	})
	if err != nil {
		respondError(c, err, "Failed to update application")
		return
	}

	c.JSON(http.StatusOK, app)
}

// Check handles POST /api/v1/applications/:id/compliance-check endpoint.
// An empty body runs a comprehensive check.
func (h *ApplicationHandler) Check(c *gin.Context) {
	id, ok := uuidParam(c, "id", "application")
	if !ok {
		return
	}

	var req ApplicationCheckRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err, "Invalid request body")
			return
		}
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing application compliance check", map[string]interface{}{
			"application_id": id.String(),
			"level":          req.ComplianceLevel,
		})
	}

	result, err := h.service.RunCheck(c.Request.Context(), id, req.ComplianceLevel)
	if err != nil {
		respondError(c, err, "Failed to run compliance check")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats handles GET /api/v1/dashboard/stats endpoint.
func (h *ApplicationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load dashboard statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
