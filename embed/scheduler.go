package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/notify"
)

// Scheduler encodes records batch by batch.
type Scheduler struct {
	embedder  ai.Embedder
	batchSize int
	token     *CancelToken
	observer  notify.Observer
	monitor   ResourceMonitor
	normalize bool
	model     string
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithBatchSize sets the number of records per encode call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(s *Scheduler) error {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
		}
		s.batchSize = size
		return nil
	}
}

// WithCancelToken shares a cancel token with the caller.
func WithCancelToken(token *CancelToken) Option {
	return func(s *Scheduler) error {
		if token != nil {
			s.token = token
		}
		return nil
	}
}

// WithObserver receives progress and batch error notifications.
func WithObserver(o notify.Observer) Option {
	return func(s *Scheduler) error {
		if o == nil {
			o = notify.Noop
		}
		s.observer = o
		return nil
	}
}

// WithMonitor sets the memory sampler used for snapshots.
func WithMonitor(m ResourceMonitor) Option {
	return func(s *Scheduler) error {
		s.monitor = m
		return nil
	}
}

// WithNormalize scales every vector to unit length.
func WithNormalize(enabled bool) Option {
	return func(s *Scheduler) error {
		s.normalize = enabled
		return nil
	}
}

// WithModelName labels snapshots with the model id.
func WithModelName(model string) Option {
	return func(s *Scheduler) error {
		s.model = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a Scheduler around embedder.
func NewScheduler(embedder ai.Embedder, opts ...Option) (*Scheduler, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Scheduler{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		token:     NewCancelToken(),
		observer:  notify.Noop,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "scheduler")
	return s, nil
}

// CancelToken returns the token checked before each batch.
func (s *Scheduler) CancelToken() *CancelToken {
	return s.token
}

// Result is the outcome of a completed (not cancelled) Run.
type Result struct {
	// Vectors holds one vector per successfully encoded record, in record order.
	Vectors [][]float32
	// Dim is the vector length, or 0 if nothing was encoded.
	Dim int
	// FailedRecords holds the sorted source indices of records in failed batches.
	FailedRecords []int
	// Stats is the snapshot emitted after the last batch.
	Stats core.Snapshot

	tracker *ProgressTracker
}

// Final builds the closing snapshot once the vectors are written to art.
func (r *Result) Final(ctx context.Context, art *core.Artifact) core.Snapshot {
	return r.tracker.Final(ctx, art)
}

// Run encodes records. Batch failures are reported to the observer and
// skipped. The only error returned is core.ErrCancelled; on cancellation no
// Result is returned.
//
// The cancel token is not reset here; callers owning a run reset it before
// starting.
func (s *Scheduler) Run(ctx context.Context, records []core.Record) (*Result, error) {
	if s.token.Cancelled() {
		return nil, core.ErrCancelled
	}

	batches := BatchCount(len(records), s.batchSize)
	tracker := NewProgressTracker(len(records), batches, s.model, s.monitor)
	tracker.Start(ctx)

	dim := 0
	if len(records) > 0 {
		d, err := s.embedder.Dimension(ctx)
		if err != nil {
			// The first successful batch will establish it instead.
			s.logger.Warn("could not determine embedding dimension up front", "err", err)
		} else {
			dim = d
			tracker.SetDim(dim)
		}
	}

	s.logger.Info("embedding records", "records", len(records), "batches", batches, "batch_size", s.batchSize)

	vectors := make([][]float32, 0, len(records))
	var last core.Snapshot
	it := NewBatchIterator(records, s.batchSize, s.token)
	err := it.ForEach(ctx, func(k int, batch []core.Record) error {
		out, err := s.embedder.EmbedTexts(ctx, core.Texts(batch))
		if err == nil {
			err = checkBatch(out, len(batch), &dim)
		}

		if err != nil {
			be := &core.BatchError{Batch: k, Size: len(batch), Err: err}
			s.logger.Warn("batch failed", "batch", k, "size", len(batch), "err", err)
			indices := make([]int, len(batch))
			for i, r := range batch {
				indices[i] = r.Index
			}
			s.observer.OnError(be)
			last = tracker.Failed(ctx, indices)
		} else {
			tracker.SetDim(dim)
			for _, v := range out {
				if s.normalize {
					v = NormalizeVector(v)
				}
				vectors = append(vectors, v)
			}
			last = tracker.Succeeded(ctx, len(batch))
		}

		s.observer.OnProgress(last.Clone())
		return nil
	})
	if err != nil {
		s.logger.Info("embedding stopped", "batches_done", last.BatchIndex, "err", err)
		return nil, err
	}

	if len(records) == 0 {
		last = tracker.Snapshot()
	}
	return &Result{
		Vectors:       vectors,
		Dim:           dim,
		FailedRecords: tracker.FailedRecords(),
		Stats:         last,
		tracker:       tracker,
	}, nil
}

// checkBatch verifies one vector per text and a consistent dimension. A
// passing batch fixes the dimension when it was not known.
func checkBatch(out [][]float32, want int, dim *int) error {
	if len(out) != want {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", want, len(out))
	}
	expected := *dim
	for i, v := range out {
		if len(v) == 0 {
			return fmt.Errorf("%w at position %d", ai.ErrEmptyEmbedding, i)
		}
		if expected == 0 {
			expected = len(v)
		}
		if len(v) != expected {
			return fmt.Errorf("dimension mismatch at position %d: expected %d, got %d", i, expected, len(v))
		}
	}
	*dim = expected
	return nil
}
