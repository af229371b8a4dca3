package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

// DefaultHistoryLimit caps history listings when no limit is configured.
const DefaultHistoryLimit = 50

// Checker is the compliance engine as seen by the service.
type Checker interface {
	Check(ctx context.Context, property *models.Property, permit *models.PermitType, details models.ProjectDetails, level models.ComplianceLevel) (*models.ComplianceReport, error)
	DirectCheck(ctx context.Context, property *models.Property, permit *models.PermitType, details models.ProjectDetails) *models.DirectCheckResult
	ApplicableGoals(ctx context.Context, description string, pctx models.PropertyContext) ([]models.StatewideGoal, error)
	EvaluateGoal(ctx context.Context, goal models.StatewideGoal, description string, pctx models.PropertyContext) (models.GoalEvaluation, error)
}

// ComplianceService defines the interface for compliance checks and their history.
type ComplianceService interface {
	// Check runs a compliance check and appends the report to the history.
	// Returns a *ValidationError for bad input, ErrPropertyNotFound or
	// ErrPermitTypeNotFound for unknown ids. A history failure is logged and
	// leaves Persisted false; it is not returned.
	Check(ctx context.Context, propertyID, permitTypeID int64, details models.ProjectDetails, level string) (*models.ComplianceReport, error)

	// DirectCheck runs the zoning and permit-specific check. It is not recorded.
	DirectCheck(ctx context.Context, propertyID, permitTypeID int64, details models.ProjectDetails) (*models.DirectCheckResult, error)

	// GetCheck returns a recorded report or ErrCheckNotFound.
	GetCheck(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error)

	// History lists the newest recorded checks for a property.
	History(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error)

	// ApplicableGoals lists the statewide goals a project triggers.
	ApplicableGoals(ctx context.Context, description string, pctx models.PropertyContext) ([]models.StatewideGoal, error)

	// EvaluateGoal evaluates one goal by number. Returns ErrGoalNotFound for
	// a number without a goal.
	EvaluateGoal(ctx context.Context, number int, description string, pctx models.PropertyContext) (*models.GoalEvaluation, error)
}

type complianceService struct {
	properties   PropertyService
	permits      PermitService
	rules        repository.RuleStore
	checks       repository.CheckRepository
	engine       Checker
	log          *logger.Logger
	historyLimit int
}

// ComplianceDeps are the collaborators of the compliance service. Checks may
// be nil, in which case reports are not recorded.
type ComplianceDeps struct {
	Properties   PropertyService
	Permits      PermitService
	Rules        repository.RuleStore
	Checks       repository.CheckRepository
	Engine       Checker
	HistoryLimit int
}

// NewComplianceService creates a new instance of ComplianceService.
func NewComplianceService(deps ComplianceDeps, log *logger.Logger) ComplianceService {
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &complianceService{
		properties:   deps.Properties,
		permits:      deps.Permits,
		rules:        deps.Rules,
		checks:       deps.Checks,
		engine:       deps.Engine,
		log:          log,
		historyLimit: limit,
	}
}

func (s *complianceService) Check(ctx context.Context, propertyID, permitTypeID int64, details models.ProjectDetails, level string) (*models.ComplianceReport, error) {
	parsed, err := models.ParseComplianceLevel(level)
	if err != nil {
		return nil, invalid("compliance_level", "must be one of BASIC, STANDARD, COMPREHENSIVE, EXPERT")
	}

	property, permit, err := s.resolve(ctx, propertyID, permitTypeID, details)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Check(ctx, property, permit, details, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to run compliance check: %w", err)
	}

	s.record(ctx, report)
	return report, nil
}

func (s *complianceService) DirectCheck(ctx context.Context, propertyID, permitTypeID int64, details models.ProjectDetails) (*models.DirectCheckResult, error) {
	property, permit, err := s.resolve(ctx, propertyID, permitTypeID, details)
	if err != nil {
		return nil, err
	}

	result := s.engine.DirectCheck(ctx, property, permit, details)
	s.log.Info("Direct compliance check completed", map[string]interface{}{
		"property_id":    property.ID,
		"permit_code":    permit.Code,
		"overall_status": result.Summary.OverallStatus,
		"degraded":       result.Degraded,
	})
	return result, nil
}

func (s *complianceService) GetCheck(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	if s.checks == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckNotFound, id)
	}

	record, err := s.checks.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query compliance check", err, map[string]interface{}{
			"check_id": id.String(),
		})
		return nil, fmt.Errorf("failed to query compliance check: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckNotFound, id)
	}

	return record.DecodeReport()
}

func (s *complianceService) History(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	if _, err := s.properties.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	if s.checks == nil {
		return []models.ComplianceCheckRecord{}, nil
	}

	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	records, err := s.checks.ListByProperty(ctx, propertyID, limit)
	if err != nil {
		s.log.Error("Failed to list compliance history", err, map[string]interface{}{
			"property_id": propertyID,
		})
		return nil, fmt.Errorf("failed to list compliance history: %w", err)
	}
	if records == nil {
		records = []models.ComplianceCheckRecord{}
	}
	return records, nil
}

func (s *complianceService) ApplicableGoals(ctx context.Context, description string, pctx models.PropertyContext) ([]models.StatewideGoal, error) {
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	goals, err := s.engine.ApplicableGoals(ctx, description, pctx)
	if err != nil {
		s.log.Error("Failed to select applicable goals", err, nil)
		return nil, err
	}
	return goals, nil
}

func (s *complianceService) EvaluateGoal(ctx context.Context, number int, description string, pctx models.PropertyContext) (*models.GoalEvaluation, error) {
	if number < 1 || number > 19 {
		return nil, invalid("number", "must be between 1 and 19")
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	goals, err := s.rules.AllGoals(ctx)
	if err != nil {
		s.log.Error("Failed to load statewide goals", err, nil)
		return nil, fmt.Errorf("failed to load statewide goals: %w", err)
	}

	for _, goal := range goals {
		if goal.Number != number {
			continue
		}
		eval, err := s.engine.EvaluateGoal(ctx, goal, description, pctx)
		if err != nil {
			s.log.Error("Failed to evaluate statewide goal", err, map[string]interface{}{
				"goal_number": number,
			})
			return nil, err
		}
		return &eval, nil
	}
	return nil, fmt.Errorf("%w: goal %d", ErrGoalNotFound, number)
}

// resolve validates the project and loads the property and permit type.
func (s *complianceService) resolve(ctx context.Context, propertyID, permitTypeID int64, details models.ProjectDetails) (*models.Property, *models.PermitType, error) {
	if propertyID <= 0 {
		return nil, nil, invalid("property_id", "is required")
	}
	if permitTypeID <= 0 {
		return nil, nil, invalid("permit_type_id", "is required")
	}
	if err := validateStruct(detailsValidator, details); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.log.Warn("Invalid project details", map[string]interface{}{
				"fields": sortedFields(verr),
			})
		}
		return nil, nil, err
	}

	property, err := s.properties.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	permit, err := s.permits.GetPermitType(ctx, permitTypeID)
	if err != nil {
		return nil, nil, err
	}
	return property, permit, nil
}

// record appends the report to the history. Failures only clear Persisted.
func (s *complianceService) record(ctx context.Context, report *models.ComplianceReport) {
	if s.checks == nil {
		return
	}

	report.Persisted = true
	rec, err := models.NewComplianceCheckRecord(report)
	if err == nil {
		err = s.checks.Append(ctx, rec)
	}
	if err != nil {
		report.Persisted = false
		s.log.Error("Failed to record compliance check", err, map[string]interface{}{
			"check_id":    report.ID.String(),
			"property_id": report.Property.ID,
		})
	}
}

func validateDescription(description string) error {
	if len(description) > 4000 {
		return invalid("description", "must be at most 4000 characters")
	}
	return nil
}
