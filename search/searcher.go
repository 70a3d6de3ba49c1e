package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/embed"
	"github.com/poiesic/vectorize/export"
)

// Result is one search hit.
type Result struct {
	// Row is the artifact row.
	Row int
	// Record is the source record index, or -1 when records were not supplied.
	Record int
	// Text is the source record text, empty when records were not supplied.
	Text string
	// Distance is the squared L2 distance to the query.
	Distance float32
	// Verbatim is set when Text contains every significant query term.
	Verbatim bool
}

// Searcher runs k-NN queries over a flat index.
type Searcher struct {
	index     *export.FlatIndex
	embedder  ai.Embedder
	records   []core.Record
	failed    []int
	rows      []int
	normalize bool
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRecords supplies the records the index was built from, along with the
// indices of records whose batches failed.
func WithRecords(records []core.Record, failed []int) Option {
	return func(s *Searcher) error {
		s.records = records
		s.failed = failed
		return nil
	}
}

// WithNormalizeQuery scales query vectors to unit length. Use it when the
// index was written from normalized vectors.
func WithNormalizeQuery(enabled bool) Option {
	return func(s *Searcher) error {
		s.normalize = enabled
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index *export.FlatIndex, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:    index,
		embedder: embedder,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	if s.records != nil {
		s.rows = core.RowMapping(len(s.records), s.failed)
		if len(s.rows) != index.Len() {
			return nil, fmt.Errorf("%w: %d rows, %d records with %d failed",
				ErrRowMismatch, index.Len(), len(s.records), len(s.failed))
		}
	}

	return s, nil
}

// Open loads a flat-index artifact from path and creates a searcher over it.
func Open(path string, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	index, err := export.OpenFlatIndex(path)
	if err != nil {
		return nil, err
	}
	return NewSearcher(index, embedder, opts...)
}

// Len returns the number of indexed rows.
func (s *Searcher) Len() int {
	return s.index.Len()
}

// Search returns up to k rows closest to query, closest first.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	return s.SearchWithMonitor(ctx, query, k, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) ([]Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	if s.normalize {
		vector = embed.NormalizeVector(vector)
	}
	monitor.AfterEmbedding(vector)

	neighbors, err := s.index.Search(vector, k)
	if err != nil {
		s.logger.Error("error searching index", "err", err)
		return nil, err
	}
	monitor.AfterIndexSearch(neighbors)

	queryTerms := terms(query)
	results := make([]Result, len(neighbors))
	for i, n := range neighbors {
		r := Result{Row: n.Row, Record: -1, Distance: n.Distance}
		if s.rows != nil {
			r.Record = s.rows[n.Row]
			r.Text = s.records[r.Record].Text
			r.Verbatim = verbatim(queryTerms, r.Text)
		}
		results[i] = r
	}

	s.logger.Debug("search complete", "query", query, "hits", len(results))
	monitor.Finish(results)
	return results, nil
}
