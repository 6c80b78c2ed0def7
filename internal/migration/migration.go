package migration

import (
	"context"

	"gosigma/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range Statements() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.Wrapf(errors.DatabaseError(err.Error(), err), "failed to %s", step.Name)
		}
	}
	return nil
}

// Step is one named DDL statement
type Step struct {
	Name string
	SQL  string
}

// Statements lists the schema in application order
func Statements() []Step {
	return []Step{
		{
			Name: "create analysis_records table",
			SQL: `
		CREATE TABLE IF NOT EXISTS analysis_records (
			id UUID PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			label VARCHAR(255) NOT NULL DEFAULT '',
			input_hash CHAR(64) NOT NULL,
			input JSONB NOT NULL,
			result JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		},
		{
			Name: "create analysis_records kind/hash index",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_analysis_records_kind_hash ON analysis_records(kind, input_hash)`,
		},
		{
			Name: "create analysis_records created_at index",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_analysis_records_created_at ON analysis_records(created_at DESC)`,
		},
	}
}
