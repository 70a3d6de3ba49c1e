package pipeline

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRunActive is returned when a run is started while another is in progress.
	ErrRunActive = errors.New("a run is already active")
)
