package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

const (
	// DefaultApplicationPageSize is the page size of application listings.
	DefaultApplicationPageSize = 25
	// MaxApplicationPageSize caps the page size a caller may ask for.
	MaxApplicationPageSize = 100
	// StatsWindow is the period the dashboard's windowed figures cover.
	StatsWindow = 30 * 24 * time.Hour
)

// ErrApplicationNotFound is returned for an unknown application id.
var ErrApplicationNotFound = errors.New("application not found")

// NewApplication is what an applicant files.
type NewApplication struct {
	Applicant    models.Applicant
	Details      models.ProjectDetails
	PropertyID   int64
	PermitTypeID int64
}

// ApplicationUpdate is a staff edit. Nil fields are left unchanged.
type ApplicationUpdate struct {
	Status      *string
	FeePaid     *bool
	ReviewNotes *string
}

// ApplicationCheck is the result of running a compliance check for an
// application.
type ApplicationCheck struct {
	Application *models.Application     `json:"application"`
	Report      *models.ComplianceReport `json:"report"`
}

// ApplicationService defines the interface for permit application operations.
type ApplicationService interface {
	// Create validates and prices a new application. It starts as DRAFT.
	// Returns ErrPropertyNotFound or ErrPermitTypeNotFound for unknown ids.
	Create(ctx context.Context, in NewApplication) (*models.Application, error)

	// Get returns ErrApplicationNotFound if no application has the id.
	Get(ctx context.Context, id uuid.UUID) (*models.Application, error)

	// List returns one page of applications, newest first. An empty status
	// lists every application. Pages start at 1.
	List(ctx context.Context, status string, page, pageSize int) (*models.ApplicationPage, error)

	// Update applies a staff edit. Moving to SUBMITTED stamps SubmittedAt
	// once; moving to a decision stamps ReviewCompletedAt.
	Update(ctx context.Context, id uuid.UUID, upd ApplicationUpdate) (*models.Application, error)

	// RunCheck runs a compliance check on the application's project, links
	// the report to it and records the outcome.
	RunCheck(ctx context.Context, id uuid.UUID, level string) (*ApplicationCheck, error)

	// Stats summarizes applications for the staff dashboard.
	Stats(ctx context.Context) (*models.ApplicationStats, error)
}

type applicationService struct {
	repo       repository.ApplicationRepository
	properties PropertyService
	permits    PermitService
	compliance ComplianceService
	log        *logger.Logger
	now        func() time.Time
}

// ApplicationDeps are the collaborators of the application service.
type ApplicationDeps struct {
	Repo       repository.ApplicationRepository
	Properties PropertyService
	Permits    PermitService
	Compliance ComplianceService
}

// NewApplicationService creates a new instance of ApplicationService.
func NewApplicationService(deps ApplicationDeps, log *logger.Logger) ApplicationService {
	return &applicationService{
		repo:       deps.Repo,
		properties: deps.Properties,
		permits:    deps.Permits,
		compliance: deps.Compliance,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *applicationService) Create(ctx context.Context, in NewApplication) (*models.Application, error) {
	in.Applicant.Name = strings.TrimSpace(in.Applicant.Name)
	in.Applicant.Email = strings.TrimSpace(in.Applicant.Email)
	if err := validateStruct(detailsValidator, in.Applicant); err != nil {
		return nil, err
	}
	if in.PropertyID <= 0 {
		return nil, invalid("property_id", "is required")
	}
	if in.PermitTypeID <= 0 {
		return nil, invalid("permit_type_id", "is required")
	}
	if err := validateStruct(detailsValidator, in.Details); err != nil {
		return nil, err
	}

	if _, err := s.properties.GetProperty(ctx, in.PropertyID); err != nil {
		return nil, err
	}
	permit, err := s.permits.GetPermitType(ctx, in.PermitTypeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.Application{
		ID:                 uuid.New(),
		PropertyID:         in.PropertyID,
		PermitTypeID:       in.PermitTypeID,
		Applicant:          in.Applicant,
		Details:            in.Details,
		Status:             models.ApplicationDraft,
		CalculatedFee:      QuoteFee(permit, in.Details).TotalFee,
		ComplianceIssues:   []string{},
		ComplianceCheckIDs: []uuid.UUID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		s.log.Error("Failed to store application", err, map[string]interface{}{
			"application_id": app.ID.String(),
		})
		return nil, fmt.Errorf("failed to store application: %w", err)
	}

	s.log.Info("Application created", map[string]interface{}{
		"application_id": app.ID.String(),
		"property_id":    app.PropertyID,
		"permit_code":    permit.Code,
		"fee":            app.CalculatedFee.StringFixed(2),
	})
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query application", err, map[string]interface{}{
			"application_id": id.String(),
		})
		return nil, fmt.Errorf("failed to query application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, status string, page, pageSize int) (*models.ApplicationPage, error) {
	var filter repository.ApplicationFilter
	if status != "" {
		parsed, err := models.ParseApplicationStatus(status)
		if err != nil {
			return nil, invalid("status", "unknown application status")
		}
		filter.Status = parsed
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultApplicationPageSize
	}
	if pageSize > MaxApplicationPageSize {
		pageSize = MaxApplicationPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list applications", err, map[string]interface{}{
			"status": string(filter.Status),
			"page":   page,
		})
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return &models.ApplicationPage{
		Applications: apps,
		Status:       filter.Status,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

func (s *applicationService) Update(ctx context.Context, id uuid.UUID, upd ApplicationUpdate) (*models.Application, error) {
	var status models.ApplicationStatus
	if upd.Status != nil {
		parsed, err := models.ParseApplicationStatus(*upd.Status)
		if err != nil {
			return nil, invalid("status", "unknown application status")
		}
		status = parsed
	}
	if upd.ReviewNotes != nil && len(*upd.ReviewNotes) > 4000 {
		return nil, invalid("review_notes", "must be at most 4000 characters")
	}

	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if status != "" && status != app.Status {
		s.log.Info("Application status changed", map[string]interface{}{
			"application_id": id.String(),
			"from":           string(app.Status),
			"to":             string(status),
		})
		app.Status = status
		if status == models.ApplicationSubmitted && app.SubmittedAt == nil {
			app.SubmittedAt = &now
		}
		if status.Decided() {
			app.ReviewCompletedAt = &now
		}
	}
	if upd.FeePaid != nil {
		app.FeePaid = *upd.FeePaid
	}
	if upd.ReviewNotes != nil {
		app.ReviewNotes = *upd.ReviewNotes
	}
	app.UpdatedAt = now

	if err := s.repo.Update(ctx, app); err != nil {
		if errors.Is(err, repository.ErrApplicationMissing) {
			return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
		}
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return app, nil
}

func (s *applicationService) RunCheck(ctx context.Context, id uuid.UUID, level string) (*ApplicationCheck, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := s.compliance.Check(ctx, app.PropertyID, app.PermitTypeID, app.Details, level)
	if err != nil {
		return nil, err
	}

	app.ComplianceCheckIDs = append(app.ComplianceCheckIDs, report.ID)
	app.CompliancePassed = checkPassed(report.OverallStatus)
	app.ComplianceIssues = failedVerdictMessages(report)
	app.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to link compliance check: %w", err)
	}

	s.log.Info("Application compliance check linked", map[string]interface{}{
		"application_id": id.String(),
		"check_id":       report.ID.String(),
		"overall_status": report.OverallStatus,
		"passed":         app.CompliancePassed,
	})
	return &ApplicationCheck{Application: app, Report: report}, nil
}

func (s *applicationService) Stats(ctx context.Context) (*models.ApplicationStats, error) {
	stats, err := s.repo.Stats(ctx, s.now().Add(-StatsWindow))
	if err != nil {
		s.log.Error("Failed to summarize applications", err, nil)
		return nil, fmt.Errorf("failed to summarize applications: %w", err)
	}

	types, err := s.permits.ListPermitTypes(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(types))
	for _, pt := range types {
		names[pt.ID] = pt.Name
	}
	for i := range stats.ByPermitType {
		stats.ByPermitType[i].PermitType = names[stats.ByPermitType[i].PermitTypeID]
	}
	return stats, nil
}

// checkPassed reports whether an overall status clears an application
// without staff review.
func checkPassed(status models.OverallStatus) bool {
	return status == models.OverallApproved || status == models.OverallApprovedWithConditions
}

func failedVerdictMessages(report *models.ComplianceReport) []string {
	issues := []string{}
	for _, level := range []*models.LevelReport{report.Basic, report.Standard} {
		if level == nil {
			continue
		}
		for _, v := range level.Verdicts {
			if v.Outcome == models.OutcomeFail {
				issues = append(issues, v.Message)
			}
		}
	}
	return issues
}
