package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (*RunRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	idSeq, err := backend.GetSequence(runIDSeq)
	if err != nil {
		return nil, err
	}

	return &RunRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RunRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RunRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveRun stores a run, assigning an ID when it has none.
// Saving an existing ID replaces the stored run.
func (r *RunRepository) SaveRun(ctx context.Context, run *core.RunRecord) (*core.RunRecord, error) {
	if run == nil {
		return nil, storage.ErrInvalidQuery
	}
	saved := *run

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if saved.ID == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			saved.ID = core.ID(nextID)
		}

		key := makeRunKey(saved.ID)

		// Drop the old recency entry when replacing
		old, err := r.readRun(tx, key)
		if err != nil {
			return err
		}
		if old != nil {
			if err := tx.Delete(makeRunFinishedKey(indexTime(old), old.ID)); err != nil {
				return err
			}
		}

		if err := tx.Set(key, storage.MarshalRunRecord(&saved)); err != nil {
			return err
		}
		finishedKey := makeRunFinishedKey(indexTime(&saved), saved.ID)
		if err := tx.Set(finishedKey, storage.MarshalID(saved.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id core.ID) (*core.RunRecord, error) {
	var run *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = r.readRun(tx, makeRunKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, storage.ErrNotFound
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*core.RunRecord, error) {
	var results []*core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent runs first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(runFinishedPrefix + ":")

		for iter.Seek(makeMaxRunFinishedKey()); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var runID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				runID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			run, err := r.readRun(tx, makeRunKey(runID))
			if err != nil {
				return err
			}
			if run != nil {
				results = append(results, run)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteRun removes a run and its recency entry.
func (r *RunRepository) DeleteRun(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(id)
		run, err := r.readRun(tx, key)
		if err != nil {
			return err
		}
		if run == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeRunFinishedKey(indexTime(run), id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readRun reads a run record from the transaction.
// Returns nil, nil when the key does not exist.
func (r *RunRepository) readRun(tx *badger.Txn, key []byte) (*core.RunRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var run *core.RunRecord
	err = item.Value(func(val []byte) error {
		var err error
		run, err = storage.UnmarshalRunRecord(val)
		return err
	})
	return run, err
}

// indexTime is the timestamp a run is ordered by: when it finished, or when
// it started for runs that never finished.
func indexTime(run *core.RunRecord) time.Time {
	if !run.FinishedAt.IsZero() {
		return run.FinishedAt
	}
	return run.StartedAt
}
