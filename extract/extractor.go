package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/vectorize/core"
)

// Extractor reads records from supported input files. It holds no per-file
// state and is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Extractor.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

// Extract parses path into records in source order. Calling it twice on an
// unchanged file yields identical results.
func (e *Extractor) Extract(ctx context.Context, path string) ([]core.Record, error) {
	kind, err := core.InputKindFor(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var texts []string
	switch kind {
	case core.InputText:
		texts, err = readText(path)
	case core.InputCSV:
		texts, err = readCSV(path, e.logger)
	case core.InputJSON:
		texts, err = readJSON(path)
	case core.InputExcel:
		texts, err = readExcel(path)
	}
	if err != nil {
		e.logger.Error("extraction failed", "path", path, "err", err)
		return nil, err
	}

	records := make([]core.Record, len(texts))
	for i, text := range texts {
		records[i] = core.NewRecord(i, text)
	}
	e.logger.Debug("extracted records", "path", path, "kind", string(kind), "count", len(records))
	return records, nil
}

// Extract parses path with a default Extractor.
func Extract(ctx context.Context, path string) ([]core.Record, error) {
	e, err := New()
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, path)
}

func readErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", core.ErrRead, path, err)
}

// joinRow joins every cell with a single space, keeping cell whitespace.
// ok is false when the joined row is blank.
func joinRow(cells []string) (text string, ok bool) {
	text = strings.Join(cells, " ")
	return text, strings.TrimSpace(text) != ""
}
