package embed

import (
	"context"
	"fmt"

	"github.com/poiesic/vectorize/core"
)

// DefaultBatchSize is the number of records encoded per call when none is configured.
const DefaultBatchSize = 32

// BatchCount returns how many batches of size cover total records.
func BatchCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// BatchIterator walks records in consecutive batches.
type BatchIterator struct {
	records   []core.Record
	batchSize int
	token     *CancelToken
}

// NewBatchIterator creates a new batch iterator.
// batchSize: number of records per batch (defaults to DefaultBatchSize when <= 0)
// token: may be nil
func NewBatchIterator(records []core.Record, batchSize int, token *CancelToken) *BatchIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchIterator{
		records:   records,
		batchSize: batchSize,
		token:     token,
	}
}

// ForEach calls fn for each batch with its 1-based index. Before every batch
// it checks the cancel token and ctx; either stops the walk with
// core.ErrCancelled. Iteration also stops on the first error from fn.
func (it *BatchIterator) ForEach(ctx context.Context, fn func(k int, batch []core.Record) error) error {
	for i, k := 0, 1; i < len(it.records); i, k = i+it.batchSize, k+1 {
		if err := it.checkCancelled(ctx); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(it.records))
		if err := fn(k, it.records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (it *BatchIterator) checkCancelled(ctx context.Context) error {
	if it.token != nil && it.token.Cancelled() {
		return core.ErrCancelled
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", core.ErrCancelled, ctx.Err())
	default:
	}
	return nil
}
