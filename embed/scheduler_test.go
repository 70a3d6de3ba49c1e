package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures observer calls.
type recorder struct {
	mu        sync.Mutex
	snapshots []core.Snapshot
	errs      []error
}

func (r *recorder) observer() notify.Observer {
	return notify.Funcs{
		Progress: func(s core.Snapshot) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.snapshots = append(r.snapshots, s)
		},
		Error: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func makeRecords(n int) []core.Record {
	records := make([]core.Record, n)
	for i := range records {
		records[i] = core.NewRecord(i, fmt.Sprintf("record %d", i))
	}
	return records
}

func newTestScheduler(t *testing.T, e *mock.MockEmbedder, rec *recorder, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithObserver(rec.observer())}, opts...)
	s, err := NewScheduler(e, opts...)
	require.NoError(t, err)
	return s
}

func TestNewScheduler(t *testing.T) {
	_, err := NewScheduler(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewScheduler(mock.NewMockEmbedder(), WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	s, err := NewScheduler(mock.NewMockEmbedder(), WithObserver(nil), WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, s.CancelToken())
}

func TestSchedulerRun_Batches(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 8}
	rec := &recorder{}
	s := newTestScheduler(t, e, rec, WithBatchSize(32), WithModelName("test-model"))

	result, err := s.Run(context.Background(), makeRecords(137))
	require.NoError(t, err)

	assert.Equal(t, []int{32, 32, 32, 32, 9}, e.BatchSizes())
	assert.Len(t, result.Vectors, 137)
	assert.Equal(t, 8, result.Dim)
	assert.Empty(t, result.FailedRecords)
	assert.Empty(t, rec.errs)

	require.Len(t, rec.snapshots, 5)
	for i, snap := range rec.snapshots {
		assert.Equal(t, i+1, snap.BatchIndex)
		assert.Equal(t, 5, snap.BatchCount)
		assert.Equal(t, 137, snap.TotalItems)
		assert.Equal(t, "test-model", snap.ModelName)
		if i > 0 {
			assert.GreaterOrEqual(t, snap.Progress, rec.snapshots[i-1].Progress)
		}
	}
	last := rec.snapshots[4]
	assert.InDelta(t, 100.0, last.Progress, 1e-9)
	assert.Equal(t, 137, last.ItemsProcessed)
	assert.Equal(t, 8, last.EmbeddingDim)
	assert.Equal(t, last, result.Stats)
}

func TestSchedulerRun_PreservesOrder(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 4}
	s := newTestScheduler(t, e, &recorder{}, WithBatchSize(3))
	records := makeRecords(10)

	result, err := s.Run(context.Background(), records)
	require.NoError(t, err)
	for i, r := range records {
		assert.Equal(t, mock.GenerateVector(r.Text, 4), result.Vectors[i])
	}
}

func TestSchedulerRun_CancelBeforeStart(t *testing.T) {
	e := mock.NewMockEmbedder()
	rec := &recorder{}
	s := newTestScheduler(t, e, rec)
	s.CancelToken().Cancel()

	result, err := s.Run(context.Background(), makeRecords(10))
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Nil(t, result)
	assert.Zero(t, e.CallCount())
	assert.Empty(t, rec.snapshots)
}

func TestSchedulerRun_CancelDuringBatch(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 4}
	rec := &recorder{}
	s := newTestScheduler(t, e, rec, WithBatchSize(10))

	calls := 0
	e.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			// The in-flight batch finishes; the next one never starts
			s.CancelToken().Cancel()
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.GenerateVector(text, 4)
		}
		return out, nil
	}

	result, err := s.Run(context.Background(), makeRecords(50))
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Nil(t, result)
	assert.Equal(t, 2, e.CallCount())
	require.Len(t, rec.snapshots, 2)
	assert.Equal(t, 20, rec.snapshots[1].ItemsProcessed)
}

func TestSchedulerRun_ContextCancelled(t *testing.T) {
	e := mock.NewMockEmbedder()
	s := newTestScheduler(t, e, &recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, makeRecords(5))
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Zero(t, e.CallCount())
}

func TestSchedulerRun_FailedBatchIsIsolated(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 4}
	rec := &recorder{}
	s := newTestScheduler(t, e, rec, WithBatchSize(32))

	cause := errors.New("upstream timeout")
	calls := 0
	e.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, cause
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.GenerateVector(text, 4)
		}
		return out, nil
	}

	records := makeRecords(137)
	result, err := s.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Len(t, result.Vectors, 137-32)
	require.Len(t, result.FailedRecords, 32)
	assert.Equal(t, 32, result.FailedRecords[0])
	assert.Equal(t, 63, result.FailedRecords[31])

	require.Len(t, rec.errs, 1)
	var be *core.BatchError
	require.ErrorAs(t, rec.errs[0], &be)
	assert.Equal(t, 2, be.Batch)
	assert.Equal(t, 32, be.Size)
	assert.ErrorIs(t, rec.errs[0], cause)
	assert.False(t, core.IsFatal(rec.errs[0]))

	require.Len(t, rec.snapshots, 5)
	assert.Equal(t, 32, rec.snapshots[1].ErrorCount)
	assert.InDelta(t, 100.0, rec.snapshots[4].Progress, 1e-9)

	// Surviving vectors line up with the row mapping
	rows := core.RowMapping(len(records), result.FailedRecords)
	require.Len(t, rows, len(result.Vectors))
	assert.Equal(t, mock.GenerateVector(records[rows[40]].Text, 4), result.Vectors[40])
}

func TestSchedulerRun_InvalidBatchOutput(t *testing.T) {
	tests := []struct {
		name string
		out  func(texts []string) [][]float32
	}{
		{
			name: "count mismatch",
			out: func(texts []string) [][]float32 {
				return make([][]float32, len(texts)-1)
			},
		},
		{
			name: "empty vector",
			out: func(texts []string) [][]float32 {
				out := make([][]float32, len(texts))
				for i := range out {
					out[i] = []float32{}
				}
				return out
			},
		},
		{
			name: "wrong dimension",
			out: func(texts []string) [][]float32 {
				out := make([][]float32, len(texts))
				for i := range out {
					out[i] = make([]float32, 3)
				}
				return out
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mock.MockEmbedder{Dim: 4}
			rec := &recorder{}
			s := newTestScheduler(t, e, rec, WithBatchSize(2))

			calls := 0
			e.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
				calls++
				if calls == 1 {
					return tt.out(texts), nil
				}
				out := make([][]float32, len(texts))
				for i := range out {
					out[i] = make([]float32, 4)
				}
				return out, nil
			}

			result, err := s.Run(context.Background(), makeRecords(4))
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1}, result.FailedRecords)
			assert.Len(t, result.Vectors, 2)
			assert.Equal(t, 4, result.Dim)
			assert.Len(t, rec.errs, 1)
		})
	}
}

func TestSchedulerRun_DimensionProbeFailure(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 6}
	e.DimensionFunc = func(ctx context.Context) (int, error) {
		return 0, errors.New("probe failed")
	}
	s := newTestScheduler(t, e, &recorder{}, WithBatchSize(4))

	result, err := s.Run(context.Background(), makeRecords(5))
	require.NoError(t, err)
	assert.Equal(t, 6, result.Dim)
	assert.Len(t, result.Vectors, 5)
}

func TestSchedulerRun_Empty(t *testing.T) {
	e := mock.NewMockEmbedder()
	rec := &recorder{}
	s := newTestScheduler(t, e, rec)

	result, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Vectors)
	assert.Zero(t, result.Dim)
	assert.Zero(t, e.CallCount())
	assert.Empty(t, rec.snapshots)
	assert.InDelta(t, 100.0, result.Stats.Progress, 1e-9)
}

func TestSchedulerRun_Normalize(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 16}
	s := newTestScheduler(t, e, &recorder{}, WithNormalize(true))

	result, err := s.Run(context.Background(), makeRecords(3))
	require.NoError(t, err)
	for _, v := range result.Vectors {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	}
}

func TestResultFinal(t *testing.T) {
	e := &mock.MockEmbedder{Dim: 4}
	s := newTestScheduler(t, e, &recorder{}, WithBatchSize(2))

	result, err := s.Run(context.Background(), makeRecords(3))
	require.NoError(t, err)

	final := result.Final(context.Background(), &core.Artifact{Path: "/out/x.npy", Size: 3 * bytesPerMB})
	assert.Equal(t, "/out/x.npy", final.OutputPath)
	assert.InDelta(t, 3.0, final.OutputSizeMB, 1e-9)
	assert.Zero(t, final.ETA)
	assert.InDelta(t, 100.0, final.Progress, 1e-9)
}
