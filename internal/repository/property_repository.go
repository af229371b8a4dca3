package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
)

const propertyColumns = `
	id,
	address,
	tax_lot,
	zoning,
	acres,
	latitude,
	longitude,
	in_floodplain,
	riparian_overlay,
	in_urban_growth_boundary,
	created_at`

// propertyRepository is the PostgreSQL implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a PropertyRepository backed by PostgreSQL.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

func (r *propertyRepository) FindByID(ctx context.Context, id int64) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}
	return p, nil
}

// Search uses ILIKE on address and tax lot. The query is escaped so that
// user-supplied % and _ match literally.
func (r *propertyRepository) Search(ctx context.Context, query string, limit int) ([]models.Property, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	sql := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE address ILIKE $1 ESCAPE '\' OR tax_lot ILIKE $1 ESCAPE '\'
		ORDER BY address
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, sql, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties (q=%q): %w", query, err)
	}
	defer rows.Close()

	results := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return results, nil
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.Address,
		&p.TaxLot,
		&p.Zoning,
		&p.Acres,
		&p.Latitude,
		&p.Longitude,
		&p.InFloodplain,
		&p.RiparianOverlay,
		&p.InUrbanGrowthBoundary,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
