package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/permits/api/internal/errors"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// GoalHandler handles statewide planning goal requests.
type GoalHandler struct {
	service services.ComplianceService
}

// NewGoalHandler creates a new GoalHandler instance.
func NewGoalHandler(service services.ComplianceService) *GoalHandler {
	return &GoalHandler{
		service: service,
	}
}

// GoalRequest is the body of both goal endpoints.
type GoalRequest struct {
	PropertyContext models.PropertyContext `json:"property_context"`
	Description     string                 `json:"description"`
}

// ApplicableGoalsResponse lists the goals a project triggers.
type ApplicableGoalsResponse struct {
	Goals []models.StatewideGoal `json:"applicableGoals"`
	Count int                    `json:"count"`
}

// Applicable handles POST /api/v1/goals/applicable endpoint.
func (h *GoalHandler) Applicable(c *gin.Context) {
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	goals, err := h.service.ApplicableGoals(c.Request.Context(), req.Description, req.PropertyContext)
	if err != nil {
		respondError(c, err, "Failed to select applicable goals")
		return
	}
	if goals == nil {
		goals = []models.StatewideGoal{}
	}

	c.JSON(http.StatusOK, ApplicableGoalsResponse{
		Goals: goals,
		Count: len(goals),
	})
}

// Evaluate handles POST /api/v1/goals/:number/evaluate endpoint.
func (h *GoalHandler) Evaluate(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid goal number", map[string]interface{}{
			"number": c.Param("number"),
		})
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid request body")
		return
	}

	eval, err := h.service.EvaluateGoal(c.Request.Context(), number, req.Description, req.PropertyContext)
	if err != nil {
		respondError(c, err, "Failed to evaluate statewide goal")
		return
	}

	c.JSON(http.StatusOK, eval)
}
