package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// applicationColumns is the select list scanApplication reads. Fees and
// check ids travel as text so they decode without extra pgx codecs.
const applicationColumns = `
	id, property_id, permit_type_id, applicant_name, applicant_email, applicant_phone,
	project_details, status, calculated_fee::text, fee_paid, compliance_passed,
	compliance_issues, compliance_check_ids::text[], review_notes,
	submitted_at, review_completed_at, created_at, updated_at`

// applicationRepository is the PostgreSQL implementation of ApplicationRepository.
type applicationRepository struct {
	db *database.Database
}

// NewApplicationRepository creates an ApplicationRepository backed by PostgreSQL.
func NewApplicationRepository(db *database.Database) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	details, err := json.Marshal(app.Details)
	if err != nil {
		return fmt.Errorf("failed to encode project details: %w", err)
	}

	query := `
		INSERT INTO permit_applications
			(id, property_id, permit_type_id, applicant_name, applicant_email, applicant_phone,
			 project_details, status, calculated_fee, fee_paid, compliance_passed,
			 compliance_issues, compliance_check_ids, review_notes,
			 submitted_at, review_completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12, $13::uuid[], $14, $15, $16, $17, $18)`

	_, err = r.db.Pool.Exec(ctx, query,
		app.ID,
		app.PropertyID,
		app.PermitTypeID,
		app.Applicant.Name,
		app.Applicant.Email,
		app.Applicant.Phone,
		details,
		string(app.Status),
		app.CalculatedFee.String(),
		app.FeePaid,
		app.CompliancePassed,
		nonNilStrings(app.ComplianceIssues),
		uuidStrings(app.ComplianceCheckIDs),
		app.ReviewNotes,
		app.SubmittedAt,
		app.ReviewCompletedAt,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateApplication, app.ID)
		}
		return fmt.Errorf("failed to insert application %s: %w", app.ID, err)
	}
	return nil
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM permit_applications WHERE id = $1`

	app, err := scanApplication(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query application %s: %w", id, err)
	}
	return app, nil
}

// Update rewrites the mutable columns. Identity, property, permit type and
// created_at never change after Create.
func (r *applicationRepository) Update(ctx context.Context, app *models.Application) error {
	details, err := json.Marshal(app.Details)
	if err != nil {
		return fmt.Errorf("failed to encode project details: %w", err)
	}

	query := `
		UPDATE permit_applications SET
			applicant_name = $2,
			applicant_email = $3,
			applicant_phone = $4,
			project_details = $5,
			status = $6,
			calculated_fee = $7::numeric,
			fee_paid = $8,
			compliance_passed = $9,
			compliance_issues = $10,
			compliance_check_ids = $11::uuid[],
			review_notes = $12,
			submitted_at = $13,
			review_completed_at = $14,
			updated_at = $15
		WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query,
		app.ID,
		app.Applicant.Name,
		app.Applicant.Email,
		app.Applicant.Phone,
		details,
		string(app.Status),
		app.CalculatedFee.String(),
		app.FeePaid,
		app.CompliancePassed,
		nonNilStrings(app.ComplianceIssues),
		uuidStrings(app.ComplianceCheckIDs),
		app.ReviewNotes,
		app.SubmittedAt,
		app.ReviewCompletedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", app.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrApplicationMissing, app.ID)
	}
	return nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int, error) {
	// An empty status parameter disables the filter.
	var total int
	countQuery := `SELECT COUNT(*) FROM permit_applications WHERE ($1 = '' OR status = $1)`
	if err := r.db.Pool.QueryRow(ctx, countQuery, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = total
	}
	query := `SELECT ` + applicationColumns + `
		FROM permit_applications
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating application rows: %w", err)
	}
	return apps, total, nil
}

func (r *applicationRepository) Stats(ctx context.Context, since time.Time) (*models.ApplicationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('SUBMITTED', 'UNDER_REVIEW')),
			COUNT(*) FILTER (WHERE status = 'APPROVED' AND review_completed_at >= $1),
			COUNT(*) FILTER (WHERE status = 'APPROVED' AND compliance_passed),
			COUNT(*) FILTER (WHERE status IN ('SUBMITTED', 'UNDER_REVIEW') AND NOT compliance_passed),
			COALESCE(SUM(calculated_fee) FILTER (WHERE fee_paid AND created_at >= $1), 0)::text
		FROM permit_applications`

	stats := &models.ApplicationStats{Since: since}
	var fees string
	err := r.db.Pool.QueryRow(ctx, query, since).Scan(
		&stats.TotalApplications,
		&stats.ActiveApplications,
		&stats.RecentlyApproved,
		&stats.AutoApproved,
		&stats.NeedsReview,
		&fees,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize applications: %w", err)
	}
	stats.FeesCollected, err = decimal.NewFromString(fees)
	if err != nil {
		return nil, fmt.Errorf("failed to parse collected fees %q: %w", fees, err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT permit_type_id, COUNT(*)
		FROM permit_applications
		GROUP BY permit_type_id
		ORDER BY COUNT(*) DESC, permit_type_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by permit type: %w", err)
	}
	defer rows.Close()

	stats.ByPermitType = []models.PermitTypeCount{}
	for rows.Next() {
		var c models.PermitTypeCount
		if err := rows.Scan(&c.PermitTypeID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan permit type count: %w", err)
		}
		stats.ByPermitType = append(stats.ByPermitType, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permit type counts: %w", err)
	}
	return stats, nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var app models.Application
	var details []byte
	var status, fee string
	var checkIDs []string
	err := row.Scan(
		&app.ID,
		&app.PropertyID,
		&app.PermitTypeID,
		&app.Applicant.Name,
		&app.Applicant.Email,
		&app.Applicant.Phone,
		&details,
		&status,
		&fee,
		&app.FeePaid,
		&app.CompliancePassed,
		&app.ComplianceIssues,
		&checkIDs,
		&app.ReviewNotes,
		&app.SubmittedAt,
		&app.ReviewCompletedAt,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(details, &app.Details); err != nil {
		return nil, fmt.Errorf("failed to decode project details of application %s: %w", app.ID, err)
	}
	app.Status = models.ApplicationStatus(status)
	if app.CalculatedFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("failed to parse fee of application %s: %w", app.ID, err)
	}
	app.ComplianceCheckIDs = make([]uuid.UUID, 0, len(checkIDs))
	for _, raw := range checkIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse check id of application %s: %w", app.ID, err)
		}
		app.ComplianceCheckIDs = append(app.ComplianceCheckIDs, id)
	}
	if app.ComplianceIssues == nil {
		app.ComplianceIssues = []string{}
	}
	return &app, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
