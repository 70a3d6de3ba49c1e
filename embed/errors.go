package embed

import "errors"

var (
	// ErrEmbedderRequired is returned when a Scheduler is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrCacheRequired is returned when a CachedEmbedder is built without a cache.
	ErrCacheRequired = errors.New("vector cache required")
)
