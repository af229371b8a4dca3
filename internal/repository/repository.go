package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// MaxSearchResults caps property search results.
const MaxSearchResults = 10

var (
	// ErrDuplicateCheck is returned when a compliance check ID is appended twice.
	ErrDuplicateCheck = errors.New("compliance check already recorded")

	// ErrDuplicateApplication is returned when an application ID is created twice.
	ErrDuplicateApplication = errors.New("application already exists")

	// ErrApplicationMissing is returned when updating an application that was never stored.
	ErrApplicationMissing = errors.New("application does not exist")
)

// PropertyRepository defines data access for the property registry.
type PropertyRepository interface {
	// FindByID returns nil, nil if no property has the id.
	FindByID(ctx context.Context, id int64) (*models.Property, error)

	// Search matches query case-insensitively against address and tax lot.
	// Results are ordered by address and capped at limit.
	Search(ctx context.Context, query string, limit int) ([]models.Property, error)
}

// PermitTypeRepository defines data access for permit types.
type PermitTypeRepository interface {
	// FindByID returns nil, nil if no permit type has the id.
	FindByID(ctx context.Context, id int64) (*models.PermitType, error)

	// FindByCode returns nil, nil if no permit type has the code.
	FindByCode(ctx context.Context, code models.PermitCode) (*models.PermitType, error)

	// List returns active permit types ordered by id.
	List(ctx context.Context) ([]models.PermitType, error)
}

// RuleStore serves zoning rules and statewide goals to the compliance engine.
type RuleStore interface {
	// RulesForDistrict returns the active rules for a zoning district.
	RulesForDistrict(ctx context.Context, district string) ([]*models.ZoningRule, error)

	// AllGoals returns the statewide goals ordered by goal number.
	AllGoals(ctx context.Context) ([]models.StatewideGoal, error)

	// RequirementsForGoal returns the requirements of one goal.
	RequirementsForGoal(ctx context.Context, goalID int64) ([]models.GoalRequirement, error)
}

// CheckRepository is the append-only history of compliance reports.
type CheckRepository interface {
	// Append stores a new record. Returns ErrDuplicateCheck if the id exists.
	Append(ctx context.Context, record *models.ComplianceCheckRecord) error

	// FindByID returns nil, nil if no record has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error)

	// ListByProperty returns the newest records for a property first.
	ListByProperty(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error)
}

// ApplicationFilter selects a page of applications. An empty Status matches
// every application.
type ApplicationFilter struct {
	Status models.ApplicationStatus
	Limit  int
	Offset int
}

// ApplicationRepository stores permit applications.
type ApplicationRepository interface {
	// Create stores a new application. Returns ErrDuplicateApplication if the id exists.
	Create(ctx context.Context, app *models.Application) error

	// FindByID returns nil, nil if no application has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)

	// Update replaces a stored application. Returns ErrApplicationMissing if
	// the id was never stored.
	Update(ctx context.Context, app *models.Application) error

	// List returns the newest matching applications first, along with the
	// number of applications matching the filter before paging.
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int, error)

	// Stats summarizes every stored application. Windowed figures count
	// from since. Permit type names are left empty.
	Stats(ctx context.Context, since time.Time) (*models.ApplicationStats, error)
}
