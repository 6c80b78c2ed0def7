package ports

import (
	"context"

	"gosigma/domain/core"
)

// AnalysisRepository persists analysis records
type AnalysisRepository interface {
	// Save stores a record; ID and CreatedAt must already be set
	Save(ctx context.Context, record *core.AnalysisRecord) error

	// Get returns the record with the given ID or a NOT_FOUND error
	Get(ctx context.Context, id core.ID) (*core.AnalysisRecord, error)

	// FindByHash returns the latest record of a kind with the given input hash, or nil
	FindByHash(ctx context.Context, kind core.AnalysisKind, hash core.Hash) (*core.AnalysisRecord, error)

	// List returns the newest records of a kind, newest first. An empty kind lists all.
	List(ctx context.Context, kind core.AnalysisKind, limit int) ([]core.AnalysisRecord, error)
}
