package search

import "errors"

var (
	// ErrIndexRequired is returned when an index is not provided.
	ErrIndexRequired = errors.New("index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRowMismatch is returned when the supplied records do not account for
	// every row in the index.
	ErrRowMismatch = errors.New("records do not match index rows")
)
