package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// recordTimeLayout is fixed width so stored timestamps sort lexically.
const recordTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteCheckSchema = `
CREATE TABLE IF NOT EXISTS compliance_checks (
	id               TEXT PRIMARY KEY,
	property_id      INTEGER NOT NULL,
	permit_type_id   INTEGER NOT NULL,
	compliance_level TEXT NOT NULL,
	overall_status   TEXT NOT NULL,
	report           TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS compliance_checks_property_idx
	ON compliance_checks (property_id, created_at DESC);`

// SQLiteCheckRepository stores compliance history in a local SQLite file.
// The CLI uses it so checks run offline still leave an audit trail.
type SQLiteCheckRepository struct {
	db *sql.DB
}

// OpenSQLiteCheckRepository opens (or creates) the database at path and
// ensures the schema exists.
func OpenSQLiteCheckRepository(ctx context.Context, path string) (*SQLiteCheckRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteCheckSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteCheckRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteCheckRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteCheckRepository) Append(ctx context.Context, rec *models.ComplianceCheckRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO compliance_checks
			(id, property_id, permit_type_id, compliance_level, overall_status, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(),
		rec.PropertyID,
		rec.PermitTypeID,
		string(rec.Level),
		string(rec.OverallStatus),
		string(rec.Report),
		rec.CreatedAt.UTC().Format(recordTimeLayout),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, rec.ID)
		}
		return fmt.Errorf("failed to insert compliance check %s: %w", rec.ID, err)
	}
	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (r *SQLiteCheckRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, property_id, permit_type_id, compliance_level, overall_status, report, created_at
		FROM compliance_checks
		WHERE id = ?`, id.String())

	rec, err := scanSQLiteRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query compliance check %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteCheckRepository) ListByProperty(ctx context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, property_id, permit_type_id, compliance_level, overall_status, report, created_at
		FROM compliance_checks
		WHERE property_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list compliance checks for property %d: %w", propertyID, err)
	}
	defer rows.Close()

	records := []models.ComplianceCheckRecord{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*models.ComplianceCheckRecord, error) {
	var (
		rec                     models.ComplianceCheckRecord
		id, level, status, body string
		created                 string
	)
	if err := row.Scan(&id, &rec.PropertyID, &rec.PermitTypeID, &level, &status, &body, &created); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid check id %q: %w", id, err)
	}
	createdAt, err := time.Parse(recordTimeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", created, err)
	}

	rec.ID = parsed
	rec.Level = models.ComplianceLevel(level)
	rec.OverallStatus = models.OverallStatus(status)
	rec.Report = []byte(body)
	rec.CreatedAt = createdAt
	return &rec, nil
}
