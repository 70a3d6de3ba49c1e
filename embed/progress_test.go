package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/vectorize/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// memorySeq returns readings in order, repeating the last.
func memorySeq(readings ...float64) MonitorFunc {
	i := 0
	return func(context.Context) (float64, error) {
		v := readings[min(i, len(readings)-1)]
		i++
		return v, nil
	}
}

func newTestTracker(total, batches int, monitor ResourceMonitor) (*ProgressTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	p := NewProgressTracker(total, batches, "m", monitor)
	p.now = clock.now
	return p, clock
}

func TestProgressTracker_Succeeded(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestTracker(100, 2, nil)
	p.Start(ctx)
	p.SetDim(4)

	clock.advance(time.Second)
	s := p.Succeeded(ctx, 50)

	assert.InDelta(t, 50.0, s.Progress, 1e-9)
	assert.Equal(t, 50, s.ItemsProcessed)
	assert.InDelta(t, 50.0, s.Speed, 1e-9)
	assert.Equal(t, time.Second, s.ETA)
	assert.Equal(t, 1, s.BatchIndex)
	assert.Equal(t, 2, s.BatchCount)
	assert.Equal(t, time.Second, s.Elapsed)
	assert.InDelta(t, float64(50*4*4)/bytesPerMB, s.OutputSizeMB, 1e-12)
}

func TestProgressTracker_Failed(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestTracker(6, 3, nil)
	p.Start(ctx)

	clock.advance(time.Second)
	p.Succeeded(ctx, 2)
	s := p.Failed(ctx, []int{3, 2})

	assert.Equal(t, 2, s.ErrorCount)
	assert.Equal(t, 4, s.ItemsProcessed)
	assert.Equal(t, []int{2, 3}, p.FailedRecords())
}

func TestProgressTracker_ZeroElapsed(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestTracker(10, 1, nil)
	p.Start(ctx)

	s := p.Succeeded(ctx, 10)
	assert.Zero(t, s.Speed)
	assert.Zero(t, s.ETA)
}

func TestProgressTracker_EmptyIsComplete(t *testing.T) {
	p, _ := newTestTracker(0, 0, nil)
	p.Start(context.Background())
	assert.InDelta(t, 100.0, p.Snapshot().Progress, 1e-9)
}

func TestProgressTracker_Memory(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestTracker(4, 2, memorySeq(10, 30, 20, 15))
	p.Start(ctx)

	clock.advance(time.Second)
	s := p.Succeeded(ctx, 2)
	assert.Equal(t, 30.0, s.MemoryMB)

	s = p.Succeeded(ctx, 2)
	assert.Equal(t, 20.0, s.MemoryMB)
	assert.Equal(t, 30.0, s.PeakMemoryMB)

	final := p.Final(ctx, &core.Artifact{Path: "/out/v.safetensors", Size: bytesPerMB / 2})
	assert.Equal(t, 30.0, final.MemoryMB)
	assert.Equal(t, "/out/v.safetensors", final.OutputPath)
	assert.InDelta(t, 0.5, final.OutputSizeMB, 1e-9)
	assert.Zero(t, final.ETA)
}

func TestProgressTracker_MonitorErrorKeepsReading(t *testing.T) {
	ctx := context.Background()
	calls := 0
	monitor := MonitorFunc(func(context.Context) (float64, error) {
		calls++
		if calls > 1 {
			return 0, errors.New("unavailable")
		}
		return 12, nil
	})
	p, _ := newTestTracker(2, 1, monitor)
	p.Start(ctx)

	s := p.Succeeded(ctx, 2)
	assert.Equal(t, 12.0, s.MemoryMB)
}

func TestProgressTracker_StartResets(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestTracker(4, 1, nil)
	p.Start(ctx)
	p.Failed(ctx, []int{0, 1})

	p.Start(ctx)
	s := p.Snapshot()
	assert.Zero(t, s.ErrorCount)
	assert.Zero(t, s.ItemsProcessed)
	require.Empty(t, p.FailedRecords())
}

func TestProcessMonitor(t *testing.T) {
	m, err := NewProcessMonitor()
	require.NoError(t, err)

	mb, err := m.MemoryMB(context.Background())
	require.NoError(t, err)
	assert.Greater(t, mb, 0.0)
}
