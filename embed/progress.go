package embed

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/vectorize/core"
)

// ProgressTracker accumulates run telemetry and produces snapshots.
type ProgressTracker struct {
	total      int
	batchCount int
	model      string
	monitor    ResourceMonitor
	now        func() time.Time

	mu        sync.Mutex
	start     time.Time
	attempted int
	errors    int
	vectors   int
	dim       int
	batch     int
	memMB     float64
	peakMB    float64
	failed    []int
}

// NewProgressTracker creates a tracker for total records split into batchCount batches.
// A nil monitor reports zero memory.
func NewProgressTracker(total, batchCount int, model string, monitor ResourceMonitor) *ProgressTracker {
	if monitor == nil {
		monitor = nullMonitor{}
	}
	return &ProgressTracker{
		total:      total,
		batchCount: batchCount,
		model:      model,
		monitor:    monitor,
		now:        time.Now,
	}
}

// Start resets counters and starts the clock.
func (p *ProgressTracker) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.start = p.now()
	p.attempted, p.errors, p.vectors, p.batch = 0, 0, 0, 0
	p.failed = nil
	p.peakMB = 0
	p.sampleMemory(ctx)
}

// SetDim records the embedding dimensionality once it is known.
func (p *ProgressTracker) SetDim(dim int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dim = dim
}

// Succeeded records a batch that produced n vectors.
func (p *ProgressTracker) Succeeded(ctx context.Context, n int) core.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batch++
	p.attempted += n
	p.vectors += n
	p.sampleMemory(ctx)
	return p.snapshot()
}

// Failed records a batch whose records (by source index) produced no vectors.
func (p *ProgressTracker) Failed(ctx context.Context, indices []int) core.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.batch++
	p.attempted += len(indices)
	p.errors += len(indices)
	p.failed = append(p.failed, indices...)
	p.sampleMemory(ctx)
	return p.snapshot()
}

// Snapshot returns the current telemetry.
func (p *ProgressTracker) Snapshot() core.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// FailedRecords returns the sorted source indices of failed records.
func (p *ProgressTracker) FailedRecords() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return core.SortedIndices(p.failed)
}

// Final returns the closing snapshot for a written artifact: memory is the
// peak, output size is the artifact's size on disk.
func (p *ProgressTracker) Final(ctx context.Context, art *core.Artifact) core.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sampleMemory(ctx)
	s := p.snapshot()
	s.MemoryMB = p.peakMB
	s.ETA = 0
	s.FailedRecords = core.SortedIndices(p.failed)
	if art != nil {
		s.OutputPath = art.Path
		s.OutputSizeMB = float64(art.Size) / bytesPerMB
	}
	return s
}

// sampleMemory must be called with lock held. A failed sample keeps the
// previous reading.
func (p *ProgressTracker) sampleMemory(ctx context.Context) {
	mb, err := p.monitor.MemoryMB(ctx)
	if err != nil {
		return
	}
	p.memMB = mb
	p.peakMB = max(p.peakMB, mb)
}

// snapshot must be called with lock held.
func (p *ProgressTracker) snapshot() core.Snapshot {
	elapsed := p.now().Sub(p.start)

	s := core.Snapshot{
		ItemsProcessed: p.attempted,
		TotalItems:     p.total,
		ErrorCount:     p.errors,
		MemoryMB:       p.memMB,
		PeakMemoryMB:   p.peakMB,
		EmbeddingDim:   p.dim,
		ModelName:      p.model,
		OutputSizeMB:   float64(p.vectors) * float64(p.dim) * 4 / bytesPerMB,
		Elapsed:        elapsed,
		BatchIndex:     p.batch,
		BatchCount:     p.batchCount,
	}
	if p.total > 0 {
		s.Progress = float64(p.attempted) / float64(p.total) * 100.0
	} else {
		s.Progress = 100.0
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Speed = float64(p.attempted) / secs
	}
	if s.Speed > 0 {
		remaining := float64(p.total - p.attempted)
		s.ETA = time.Duration(remaining / s.Speed * float64(time.Second))
	}
	return s
}
