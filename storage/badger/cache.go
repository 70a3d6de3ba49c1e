package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// VectorCache implements storage.VectorCache for BadgerDB.
type VectorCache struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorCache = (*VectorCache)(nil)

// NewVectorCache creates a new VectorCache.
func NewVectorCache(backend *Backend) (*VectorCache, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &VectorCache{
		backend: backend,
		logger:  backend.logger.With("store", "vectors"),
	}, nil
}

// GetVectors returns cached vectors for the given IDs.
func (c *VectorCache) GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error) {
	results := make(map[core.ID][]float32, len(ids))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := results[id]; ok {
				continue
			}

			item, err := tx.Get(makeVectorKey(model, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			if err := item.Value(func(val []byte) error {
				v, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				results[id] = v
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cache lookup", "model", model, "requested", len(ids), "hits", len(results))
	return results, nil
}

// PutVectors stores vectors under model. Uses a write batch so large
// inserts are split across transactions.
func (c *VectorCache) PutVectors(ctx context.Context, model string, vectors map[core.ID][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	wb := c.backend.newWriteBatch()
	defer wb.Cancel()

	for id, v := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set(makeVectorKey(model, id), storage.MarshalVector(v)); err != nil {
			return err
		}
	}
	return wb.Flush()
}
