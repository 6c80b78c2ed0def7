package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"gosigma/domain/core"
	"gosigma/internal/errors"
	"gosigma/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// analysisRow mirrors the analysis_records table
type analysisRow struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Label     string    `db:"label"`
	InputHash string    `db:"input_hash"`
	Input     string    `db:"input"`
	Result    string    `db:"result"`
	CreatedAt time.Time `db:"created_at"`
}

func toRow(rec *core.AnalysisRecord) analysisRow {
	return analysisRow{
		ID:        rec.ID.String(),
		Kind:      string(rec.Kind),
		Label:     rec.Label,
		InputHash: rec.InputHash.String(),
		Input:     string(rec.Input),
		Result:    string(rec.Result),
		CreatedAt: rec.CreatedAt,
	}
}

func (r analysisRow) record() core.AnalysisRecord {
	return core.AnalysisRecord{
		ID:        core.ID(r.ID),
		Kind:      core.AnalysisKind(r.Kind),
		Label:     r.Label,
		InputHash: core.Hash(r.InputHash),
		Input:     []byte(r.Input),
		Result:    []byte(r.Result),
		CreatedAt: r.CreatedAt,
	}
}

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// Save inserts a record
func (r *AnalysisRepositoryImpl) Save(ctx context.Context, record *core.AnalysisRecord) error {
	if record == nil || record.ID.IsEmpty() {
		return errors.InvalidInput("analysis record must have an ID")
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO analysis_records (id, kind, label, input_hash, input, result, created_at)
		VALUES (:id, :kind, :label, :input_hash, :input, :result, :created_at)
	`, toRow(record))
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.InvalidInput("analysis " + record.ID.String() + " already exists")
		}
		return errors.DatabaseError("failed to save analysis", err)
	}
	return nil
}

// Get retrieves a record by ID
func (r *AnalysisRepositoryImpl) Get(ctx context.Context, id core.ID) (*core.AnalysisRecord, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, kind, label, input_hash, input, result, created_at
		FROM analysis_records
		WHERE id = $1
	`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("analysis " + id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load analysis", err)
	}
	rec := row.record()
	return &rec, nil
}

// FindByHash returns the newest record of kind with the given input hash, or nil
func (r *AnalysisRepositoryImpl) FindByHash(ctx context.Context, kind core.AnalysisKind, hash core.Hash) (*core.AnalysisRecord, error) {
	var row analysisRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, kind, label, input_hash, input, result, created_at
		FROM analysis_records
		WHERE kind = $1 AND input_hash = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, string(kind), hash.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to look up analysis by hash", err)
	}
	rec := row.record()
	return &rec, nil
}

// List returns the newest records, optionally filtered by kind
func (r *AnalysisRepositoryImpl) List(ctx context.Context, kind core.AnalysisKind, limit int) ([]core.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []analysisRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, kind, label, input_hash, input, result, created_at
		FROM analysis_records
		WHERE $1 = '' OR kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, errors.DatabaseError("failed to list analyses", err)
	}
	records := make([]core.AnalysisRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}
