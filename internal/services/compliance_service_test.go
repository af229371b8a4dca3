package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permits/api/internal/compliance"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

// MockCheckRepository is a mock implementation of CheckRepository for testing
type MockCheckRepository struct {
	mock.Mock
}

func (m *MockCheckRepository) Append(ctx context.Context, record *models.ComplianceCheckRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCheckRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComplianceCheckRecord), args.Error(1)
}

func (m *MockCheckRepository) ListByProperty(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	args := m.Called(ctx, propertyID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ComplianceCheckRecord), args.Error(1)
}

func newComplianceService(t *testing.T, checks repository.CheckRepository, historyLimit int) ComplianceService {
	t.Helper()
	store := newSeededStore(t)
	log := logger.Nop()

	return NewComplianceService(ComplianceDeps{
		Properties:   NewPropertyService(store, log),
		Permits:      NewPermitService(store.Permits(), log),
		Rules:        store,
		Checks:       checks,
		Engine:       compliance.NewEngine(store, nil, log),
		HistoryLimit: historyLimit,
	}, log)
}

func TestComplianceService_CheckRecordsReport(t *testing.T) {
	checks := repository.NewMemoryCheckRepository()
	service := newComplianceService(t, checks, 0)
	ctx := context.Background()

	report, err := service.Check(ctx, 1, 1, models.ProjectDetails{FrontSetback: models.Float(15)}, "basic")
	require.NoError(t, err)
	assert.True(t, report.Persisted)
	assert.Equal(t, models.LevelBasic, report.Level)
	assert.Equal(t, models.OverallApprovedWithConditions, report.OverallStatus)

	stored, err := service.GetCheck(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, stored.ID)
	assert.True(t, stored.Persisted)
	assert.Equal(t, report.OverallStatus, stored.OverallStatus)
	assert.Equal(t, report.Basic.Verdicts[0].Message, stored.Basic.Verdicts[0].Message)

	history, err := service.History(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, report.ID, history[0].ID)
}

func TestComplianceService_CheckDefaultsToComprehensive(t *testing.T) {
	service := newComplianceService(t, nil, 0)

	report, err := service.Check(context.Background(), 1, 1, models.ProjectDetails{}, "")
	require.NoError(t, err)
	assert.Equal(t, models.LevelComprehensive, report.Level)
	assert.NotNil(t, report.Statewide)
	assert.False(t, report.Persisted)
}

func TestComplianceService_CheckValidation(t *testing.T) {
	service := newComplianceService(t, nil, 0)
	ctx := context.Background()

	tests := []struct {
		name       string
		propertyID int64
		permitID   int64
		details    models.ProjectDetails
		level      string
		field      string
	}{
		{"unknown level", 1, 1, models.ProjectDetails{}, "THOROUGH", "compliance_level"},
		{"missing property", 0, 1, models.ProjectDetails{}, "BASIC", "property_id"},
		{"missing permit type", 1, 0, models.ProjectDetails{}, "BASIC", "permit_type_id"},
		{"negative setback", 1, 1, models.ProjectDetails{FrontSetback: models.Float(-1)}, "BASIC", "front_setback"},
		{"coverage over 100", 1, 1, models.ProjectDetails{LotCoverage: models.Float(120)}, "BASIC", "lot_coverage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Check(ctx, tt.propertyID, tt.permitID, tt.details, tt.level)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestComplianceService_CheckNotFound(t *testing.T) {
	service := newComplianceService(t, nil, 0)
	ctx := context.Background()

	_, err := service.Check(ctx, 999, 1, models.ProjectDetails{}, "BASIC")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	_, err = service.Check(ctx, 1, 999, models.ProjectDetails{}, "BASIC")
	assert.ErrorIs(t, err, ErrPermitTypeNotFound)
}

func TestComplianceService_RecordFailureIsNotFatal(t *testing.T) {
	checks := new(MockCheckRepository)
	checks.On("Append", mock.Anything, mock.AnythingOfType("*models.ComplianceCheckRecord")).
		Return(errors.New("table is read-only"))
	service := newComplianceService(t, checks, 0)

	report, err := service.Check(context.Background(), 1, 1, models.ProjectDetails{}, "STANDARD")

	require.NoError(t, err)
	assert.False(t, report.Persisted)
	checks.AssertExpectations(t)
}

func TestComplianceService_GetCheckNotFound(t *testing.T) {
	checks := new(MockCheckRepository)
	id := uuid.New()
	checks.On("FindByID", mock.Anything, id).Return(nil, nil)
	service := newComplianceService(t, checks, 0)

	_, err := service.GetCheck(context.Background(), id)
	assert.ErrorIs(t, err, ErrCheckNotFound)
}

func TestComplianceService_HistoryLimit(t *testing.T) {
	checks := new(MockCheckRepository)
	checks.On("ListByProperty", mock.Anything, int64(1), 5).Return([]models.ComplianceCheckRecord{}, nil).Twice()
	checks.On("ListByProperty", mock.Anything, int64(1), 3).Return(nil, nil).Once()
	service := newComplianceService(t, checks, 5)
	ctx := context.Background()

	_, err := service.History(ctx, 1, 0)
	require.NoError(t, err)
	_, err = service.History(ctx, 1, 500)
	require.NoError(t, err)
	records, err := service.History(ctx, 1, 3)
	require.NoError(t, err)
	assert.NotNil(t, records)

	_, err = service.History(ctx, 999, 3)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	checks.AssertExpectations(t)
}

func TestComplianceService_DirectCheck(t *testing.T) {
	service := newComplianceService(t, nil, 0)

	result, err := service.DirectCheck(context.Background(), 1, 5, models.ProjectDetails{SquareFootage: models.Float(900)})
	require.NoError(t, err)
	assert.Equal(t, models.OverallNeedsReview, result.Summary.OverallStatus)
	assert.Equal(t, 1, result.Summary.FailedChecks)
}

func TestComplianceService_Goals(t *testing.T) {
	service := newComplianceService(t, nil, 0)
	ctx := context.Background()

	goals, err := service.ApplicableGoals(ctx, "", models.PropertyContext{})
	require.NoError(t, err)
	require.Len(t, goals, 3)

	eval, err := service.EvaluateGoal(ctx, 10, "Home addition", models.PropertyContext{})
	require.NoError(t, err)
	assert.Equal(t, "Housing", eval.Title)
	assert.Equal(t, models.StatusNonCompliant, eval.Status)
	assert.True(t, eval.Applicable)

	_, err = service.EvaluateGoal(ctx, 20, "", models.PropertyContext{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComplianceService_EvaluateGoalMissing(t *testing.T) {
	store := newSeededStore(t)
	log := logger.Nop()
	service := NewComplianceService(ComplianceDeps{
		Properties: NewPropertyService(store, log),
		Permits:    NewPermitService(store.Permits(), log),
		Rules:      goallessStore{store},
		Engine:     compliance.NewEngine(store, nil, log),
	}, log)

	_, err := service.EvaluateGoal(context.Background(), 3, "", models.PropertyContext{})
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

type goallessStore struct {
	repository.RuleStore
}

func (goallessStore) AllGoals(context.Context) ([]models.StatewideGoal, error) {
	return nil, nil
}
