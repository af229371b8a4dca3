package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/services"
)

func createApplication(t *testing.T, router *gin.Engine, permitTypeID int64) models.Application {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/api/v1/applications", map[string]interface{}{
		"property_id":    1,
		"permit_type_id": permitTypeID,
		"applicant": map[string]interface{}{
			"name":  "Jane Owner",
			"email": "jane@example.com",
			"phone": "541-555-0100",
		},
		"project_details": map[string]interface{}{
			"square_footage": 600,
			"front_setback":  15,
			"description":    "Garage addition",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app models.Application
	decode(t, w, &app)
	return app
}

func TestApplicationHandler_Create(t *testing.T) {
	router := newTestRouter(t)

	app := createApplication(t, router, 2)
	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.Equal(t, models.ApplicationDraft, app.Status)
	assert.Equal(t, "290.00", app.CalculatedFee.StringFixed(2))
	assert.Equal(t, "541-555-0100", app.Applicant.Phone)

	w := doRequest(t, router, http.MethodGet, "/api/v1/applications/"+app.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Application
	decode(t, w, &got)
	assert.Equal(t, app.ID, got.ID)
}

func TestApplicationHandler_CreateErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
		field          string
	}{
		{
			name:           "missing permit type",
			body:           map[string]interface{}{"property_id": 1},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "invalid email",
			body: map[string]interface{}{
				"property_id": 1, "permit_type_id": 2,
				"applicant": map[string]interface{}{"name": "Jane", "email": "jane"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
			field:          "email",
		},
		{
			name: "unknown property",
			body: map[string]interface{}{
				"property_id": 999, "permit_type_id": 2,
				"applicant": map[string]interface{}{"name": "Jane", "email": "jane@example.com"},
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, http.MethodPost, "/api/v1/applications", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			errDetail := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, errDetail.Code)
			if tt.field != "" {
				assert.Contains(t, errDetail.Details, tt.field)
			}
		})
	}
}

func TestApplicationHandler_GetErrors(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/applications/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/applications/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Application not found", decodeError(t, w).Message)
}

func TestApplicationHandler_UpdateAndList(t *testing.T) {
	router := newTestRouter(t)

	first := createApplication(t, router, 2)
	second := createApplication(t, router, 1)

	w := doRequest(t, router, http.MethodPatch, "/api/v1/applications/"+first.ID.String(), map[string]interface{}{
		"status":       "submitted",
		"review_notes": "Waiting on site plan",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Application
	decode(t, w, &updated)
	assert.Equal(t, models.ApplicationSubmitted, updated.Status)
	assert.NotNil(t, updated.SubmittedAt)
	assert.Equal(t, "Waiting on site plan", updated.ReviewNotes)

	w = doRequest(t, router, http.MethodPatch, "/api/v1/applications/"+first.ID.String(), map[string]interface{}{
		"status": "pending",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "status")

	t.Run("all", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/v1/applications", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.ApplicationPage
		decode(t, w, &page)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, services.DefaultApplicationPageSize, page.PageSize)
		require.Len(t, page.Applications, 2)
		assert.Equal(t, second.ID, page.Applications[0].ID)
	})

	t.Run("by status", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/v1/applications?status=SUBMITTED", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var page models.ApplicationPage
		decode(t, w, &page)
		require.Len(t, page.Applications, 1)
		assert.Equal(t, first.ID, page.Applications[0].ID)
	})

	t.Run("bad page", func(t *testing.T) {
		w := doRequest(t, router, http.MethodGet, "/api/v1/applications?page=0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApplicationHandler_Check(t *testing.T) {
	router := newTestRouter(t)
	app := createApplication(t, router, 2)

	w := doRequest(t, router, http.MethodPost, "/api/v1/applications/"+app.ID.String()+"/compliance-check", map[string]interface{}{
		"compliance_level": "basic",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result services.ApplicationCheck
	decode(t, w, &result)
	require.NotNil(t, result.Report)
	require.NotNil(t, result.Application)
	assert.Equal(t, models.LevelBasic, result.Report.Level)
	assert.Equal(t, []uuid.UUID{result.Report.ID}, result.Application.ComplianceCheckIDs)
	assert.NotEmpty(t, result.Application.ComplianceIssues)

	// The linked report is served by the compliance endpoints.
	w = doRequest(t, router, http.MethodGet, "/api/v1/compliance/checks/"+result.Report.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/applications/"+uuid.NewString()+"/compliance-check", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplicationHandler_DashboardStats(t *testing.T) {
	router := newTestRouter(t)
	app := createApplication(t, router, 2)

	w := doRequest(t, router, http.MethodPatch, "/api/v1/applications/"+app.ID.String(), map[string]interface{}{
		"status":   "UNDER_REVIEW",
		"fee_paid": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.ApplicationStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalApplications)
	assert.Equal(t, 1, stats.ActiveApplications)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, "290.00", stats.FeesCollected.StringFixed(2))
	require.Len(t, stats.ByPermitType, 1)
	assert.Equal(t, "Residential Addition", stats.ByPermitType[0].PermitType)
}
