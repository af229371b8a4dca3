package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
)

const permitTypeColumns = `
	id,
	code,
	name,
	description,
	base_fee,
	per_square_foot_fee,
	per_unit_fee,
	requires_public_notice,
	requires_public_hearing,
	standard_review_days,
	can_auto_approve,
	active,
	review_time,
	requirements,
	required_documents`

// permitTypeRepository is the PostgreSQL implementation of PermitTypeRepository.
type permitTypeRepository struct {
	db *database.Database
}

// NewPermitTypeRepository creates a PermitTypeRepository backed by PostgreSQL.
func NewPermitTypeRepository(db *database.Database) PermitTypeRepository {
	return &permitTypeRepository{db: db}
}

func (r *permitTypeRepository) FindByID(ctx context.Context, id int64) (*models.PermitType, error) {
	query := `SELECT ` + permitTypeColumns + ` FROM permit_types WHERE id = $1`

	pt, err := scanPermitType(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query permit type %d: %w", id, err)
	}
	return pt, nil
}

func (r *permitTypeRepository) FindByCode(ctx context.Context, code models.PermitCode) (*models.PermitType, error) {
	query := `SELECT ` + permitTypeColumns + ` FROM permit_types WHERE code = $1`

	pt, err := scanPermitType(r.db.Pool.QueryRow(ctx, query, string(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query permit type %s: %w", code, err)
	}
	return pt, nil
}

func (r *permitTypeRepository) List(ctx context.Context) ([]models.PermitType, error) {
	query := `SELECT ` + permitTypeColumns + ` FROM permit_types WHERE active ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permit types: %w", err)
	}
	defer rows.Close()

	results := []models.PermitType{}
	for rows.Next() {
		pt, err := scanPermitType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permit type row: %w", err)
		}
		results = append(results, *pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permit type rows: %w", err)
	}
	return results, nil
}

func scanPermitType(row pgx.Row) (*models.PermitType, error) {
	var pt models.PermitType
	var code string
	err := row.Scan(
		&pt.ID,
		&code,
		&pt.Name,
		&pt.Description,
		&pt.BaseFee,
		&pt.PerSquareFootFee,
		&pt.PerUnitFee,
		&pt.RequiresPublicNotice,
		&pt.RequiresPublicHearing,
		&pt.StandardReviewDays,
		&pt.CanAutoApprove,
		&pt.Active,
		&pt.ReviewTime,
		&pt.Requirements,
		&pt.RequiredDocuments,
	)
	if err != nil {
		return nil, err
	}
	pt.Code = models.PermitCode(code)
	return &pt, nil
}
