package storage

import (
	"context"

	"github.com/poiesic/vectorize/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// RunRepository is the run journal: one entry per finished run.
type RunRepository interface {
	Repository

	// SaveRun stores a run. A run with ID=0 gets a new ID from a sequence.
	// Returns the run with its ID populated.
	SaveRun(ctx context.Context, run *core.RunRecord) (*core.RunRecord, error)

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id core.ID) (*core.RunRecord, error)

	// ListRuns returns up to limit runs, most recently finished first.
	// A limit <= 0 returns every run.
	ListRuns(ctx context.Context, limit int) ([]*core.RunRecord, error)

	// DeleteRun removes a run.
	// Returns ErrNotFound if the run doesn't exist.
	DeleteRun(ctx context.Context, id core.ID) error
}

// VectorCache stores vectors keyed by model and record content ID.
type VectorCache interface {
	// GetVectors returns the cached vectors for ids under model. Missing ids
	// are absent from the result; that is not an error.
	GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors under model, replacing existing entries.
	PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error
}
