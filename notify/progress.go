package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/vectorize/core"
)

// ProgressWriter renders a single updating progress line, typically to
// os.Stderr.
type ProgressWriter struct {
	writer io.Writer
	mu     sync.Mutex
	dirty  bool // a progress line is pending without a newline
}

// NewProgressWriter creates a ProgressWriter.
func NewProgressWriter(w io.Writer) *ProgressWriter {
	return &ProgressWriter{writer: w}
}

func (p *ProgressWriter) OnProgress(s core.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f records/s - ETA %s - %.0f MB",
		s.ItemsProcessed, s.TotalItems, s.Progress, s.Speed, s.ETA.Round(time.Second), s.MemoryMB)
	p.dirty = true
}

func (p *ProgressWriter) OnCompleted(path string, final core.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endLine()
	fmt.Fprintf(p.writer, "Wrote %d x %d vectors to %s (%.2f MB) in %s",
		final.ItemsProcessed-final.ErrorCount, final.EmbeddingDim, path, final.OutputSizeMB, final.Elapsed.Round(time.Millisecond))
	if final.ErrorCount > 0 {
		fmt.Fprintf(p.writer, ", %d records failed", final.ErrorCount)
	}
	fmt.Fprintln(p.writer)
}

func (p *ProgressWriter) OnError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endLine()
	fmt.Fprintf(p.writer, "Error: %v\n", err)
}

// endLine terminates a pending progress line. Must be called with lock held.
func (p *ProgressWriter) endLine() {
	if p.dirty {
		fmt.Fprintln(p.writer)
		p.dirty = false
	}
}
