package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// checkRepository is the PostgreSQL implementation of CheckRepository.
type checkRepository struct {
	db *database.Database
}

// NewCheckRepository creates a CheckRepository backed by PostgreSQL.
func NewCheckRepository(db *database.Database) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) Append(ctx context.Context, rec *models.ComplianceCheckRecord) error {
	query := `
		INSERT INTO compliance_checks
			(id, property_id, permit_type_id, compliance_level, overall_status, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.PropertyID,
		rec.PermitTypeID,
		string(rec.Level),
		string(rec.OverallStatus),
		[]byte(rec.Report),
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, rec.ID)
		}
		return fmt.Errorf("failed to insert compliance check %s: %w", rec.ID, err)
	}
	return nil
}

func (r *checkRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error) {
	query := `
		SELECT id, property_id, permit_type_id, compliance_level, overall_status, report, created_at
		FROM compliance_checks
		WHERE id = $1`

	rec, err := scanCheckRecord(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query compliance check %s: %w", id, err)
	}
	return rec, nil
}

func (r *checkRepository) ListByProperty(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	query := `
		SELECT id, property_id, permit_type_id, compliance_level, overall_status, report, created_at
		FROM compliance_checks
		WHERE property_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, query, propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance checks for property %d: %w", propertyID, err)
	}
	defer rows.Close()

	records := []models.ComplianceCheckRecord{}
	for rows.Next() {
		rec, err := scanCheckRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan compliance check row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance check rows: %w", err)
	}
	return records, nil
}

func scanCheckRecord(row pgx.Row) (*models.ComplianceCheckRecord, error) {
	var rec models.ComplianceCheckRecord
	var level, status string
	var report []byte
	if err := row.Scan(&rec.ID, &rec.PropertyID, &rec.PermitTypeID, &level, &status, &report, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Level = models.ComplianceLevel(level)
	rec.OverallStatus = models.OverallStatus(status)
	rec.Report = report
	return &rec, nil
}
