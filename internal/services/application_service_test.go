package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

var testClock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newApplicationService(t *testing.T, repo repository.ApplicationRepository) *applicationService {
	t.Helper()
	store := newSeededStore(t)
	log := logger.Nop()
	properties := NewPropertyService(store, log)
	permits := NewPermitService(store.Permits(), log)

	svc := NewApplicationService(ApplicationDeps{
		Repo:       repo,
		Properties: properties,
		Permits:    permits,
		Compliance: newComplianceService(t, repository.NewMemoryCheckRepository(), 0),
	}, log).(*applicationService)
	svc.now = func() time.Time { return testClock }
	return svc
}

func garageApplication() NewApplication {
	return NewApplication{
		PropertyID:   1,
		PermitTypeID: 2,
		Applicant: models.Applicant{
			Name:  " Jane Owner ",
			Email: "jane@example.com",
		},
		Details: models.ProjectDetails{
			SquareFootage: models.Float(600),
			FrontSetback:  models.Float(15),
			Description:   "Garage addition",
		},
	}
}

func TestApplicationService_CreatePricesDraft(t *testing.T) {
	repo := repository.NewMemoryApplicationRepository()
	svc := newApplicationService(t, repo)
	ctx := context.Background()

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationDraft, app.Status)
	assert.Equal(t, "Jane Owner", app.Applicant.Name)
	// 200.00 base plus 600 sq ft at 0.15
	assert.Equal(t, "290.00", app.CalculatedFee.StringFixed(2))
	assert.Equal(t, testClock, app.CreatedAt)
	assert.Nil(t, app.SubmittedAt)
	assert.Empty(t, app.ComplianceCheckIDs)

	stored, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, app.CalculatedFee.Equal(stored.CalculatedFee))
}

func TestApplicationService_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewApplication)
		wantErr error
		field   string
	}{
		{"missing name", func(in *NewApplication) { in.Applicant.Name = "  " }, ErrValidation, "name"},
		{"bad email", func(in *NewApplication) { in.Applicant.Email = "not-an-email" }, ErrValidation, "email"},
		{"missing property", func(in *NewApplication) { in.PropertyID = 0 }, ErrValidation, "property_id"},
		{"negative setback", func(in *NewApplication) { in.Details.FrontSetback = models.Float(-1) }, ErrValidation, "front_setback"},
		{"unknown property", func(in *NewApplication) { in.PropertyID = 999 }, ErrPropertyNotFound, ""},
		{"unknown permit type", func(in *NewApplication) { in.PermitTypeID = 999 }, ErrPermitTypeNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryApplicationRepository()
			svc := newApplicationService(t, repo)

			in := garageApplication()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)

			if tt.field != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, tt.field)
			}

			_, total, err := repo.List(context.Background(), repository.ApplicationFilter{})
			require.NoError(t, err)
			assert.Zero(t, total, "rejected applications are not stored")
		})
	}
}

func TestApplicationService_GetUnknown(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestApplicationService_List(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		app, err := svc.Create(ctx, garageApplication())
		require.NoError(t, err)
		ids = append(ids, app.ID)
	}
	_, err := svc.Update(ctx, ids[0], ApplicationUpdate{Status: stringPtr("submitted")})
	require.NoError(t, err)

	t.Run("default page", func(t *testing.T) {
		page, err := svc.List(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, DefaultApplicationPageSize, page.PageSize)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Applications, 3)
		assert.Equal(t, ids[2], page.Applications[0].ID)
	})

	t.Run("second page", func(t *testing.T) {
		page, err := svc.List(ctx, "", 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Applications, 1)
		assert.Equal(t, ids[0], page.Applications[0].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		page, err := svc.List(ctx, "SUBMITTED", 1, 0)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationSubmitted, page.Status)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Applications, 1)
		assert.Equal(t, ids[0], page.Applications[0].ID)
	})

	t.Run("page size capped", func(t *testing.T) {
		page, err := svc.List(ctx, "", 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, MaxApplicationPageSize, page.PageSize)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.List(ctx, "PENDING", 1, 0)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestApplicationService_UpdateStampsTransitions(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)

	submitted, err := svc.Update(ctx, app.ID, ApplicationUpdate{Status: stringPtr("SUBMITTED")})
	require.NoError(t, err)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, testClock, *submitted.SubmittedAt)
	assert.Nil(t, submitted.ReviewCompletedAt)

	later := testClock.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }

	// Resubmitting keeps the first submission time.
	_, err = svc.Update(ctx, app.ID, ApplicationUpdate{Status: stringPtr("INCOMPLETE")})
	require.NoError(t, err)
	resubmitted, err := svc.Update(ctx, app.ID, ApplicationUpdate{Status: stringPtr("SUBMITTED")})
	require.NoError(t, err)
	assert.Equal(t, testClock, *resubmitted.SubmittedAt)

	approved, err := svc.Update(ctx, app.ID, ApplicationUpdate{
		Status:      stringPtr("approved_with_conditions"),
		FeePaid:     models.Bool(true),
		ReviewNotes: stringPtr("Maintain 20 ft front setback"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApprovedWithConditions, approved.Status)
	require.NotNil(t, approved.ReviewCompletedAt)
	assert.Equal(t, later, *approved.ReviewCompletedAt)
	assert.True(t, approved.FeePaid)
	assert.Equal(t, "Maintain 20 ft front setback", approved.ReviewNotes)
	assert.Equal(t, later, approved.UpdatedAt)

	stored, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.Status, stored.Status)
}

func TestApplicationService_UpdateErrors(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)

	_, err = svc.Update(ctx, app.ID, ApplicationUpdate{Status: stringPtr("PENDING")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, uuid.New(), ApplicationUpdate{FeePaid: models.Bool(true)})
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestApplicationService_RunCheckLinksReport(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)

	first, err := svc.RunCheck(ctx, app.ID, "basic")
	require.NoError(t, err)
	assert.Equal(t, models.OverallApprovedWithConditions, first.Report.OverallStatus)
	assert.True(t, first.Application.CompliancePassed)
	require.Len(t, first.Application.ComplianceIssues, 1)
	assert.Contains(t, first.Application.ComplianceIssues[0], "setback insufficient")

	second, err := svc.RunCheck(ctx, app.ID, "standard")
	require.NoError(t, err)

	stored, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.Report.ID, second.Report.ID}, stored.ComplianceCheckIDs)
	assert.Equal(t, checkPassed(second.Report.OverallStatus), stored.CompliancePassed)
}

func TestApplicationService_RunCheckErrors(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	_, err := svc.RunCheck(ctx, uuid.New(), "basic")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)
	_, err = svc.RunCheck(ctx, app.ID, "thorough")
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ComplianceCheckIDs)
}

func TestApplicationService_Stats(t *testing.T) {
	svc := newApplicationService(t, repository.NewMemoryApplicationRepository())
	ctx := context.Background()

	app, err := svc.Create(ctx, garageApplication())
	require.NoError(t, err)
	_, err = svc.RunCheck(ctx, app.ID, "basic")
	require.NoError(t, err)
	_, err = svc.Update(ctx, app.ID, ApplicationUpdate{Status: stringPtr("APPROVED"), FeePaid: models.Bool(true)})
	require.NoError(t, err)

	sfr := garageApplication()
	sfr.PermitTypeID = 1
	pending, err := svc.Create(ctx, sfr)
	require.NoError(t, err)
	_, err = svc.Update(ctx, pending.ID, ApplicationUpdate{Status: stringPtr("UNDER_REVIEW")})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, testClock.Add(-StatsWindow), stats.Since)
	assert.Equal(t, 2, stats.TotalApplications)
	assert.Equal(t, 1, stats.ActiveApplications)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, 1, stats.RecentlyApproved)
	assert.Equal(t, 1, stats.AutoApproved)
	assert.Equal(t, "290.00", stats.FeesCollected.StringFixed(2))
	require.Len(t, stats.ByPermitType, 2)
	for _, c := range stats.ByPermitType {
		assert.NotEmpty(t, c.PermitType)
		assert.Equal(t, 1, c.Count)
	}
}

func stringPtr(s string) *string {
	return &s
}
