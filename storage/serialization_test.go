package storage

import (
	"testing"
	"time"

	"github.com/poiesic/vectorize/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestVectorEncoding(t *testing.T) {
	t.Run("empty vector", func(t *testing.T) {
		decoded, err := UnmarshalVector(MarshalVector(nil))
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})

	t.Run("values survive exactly", func(t *testing.T) {
		v := []float32{0.1, -2.5, 3.14159, 0}
		decoded, err := UnmarshalVector(MarshalVector(v))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	})

	t.Run("truncated data", func(t *testing.T) {
		data := MarshalVector([]float32{1, 2, 3})
		_, err := UnmarshalVector(data[:len(data)-2])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		data := append(MarshalVector([]float32{1}), 0x00)
		_, err := UnmarshalVector(data)
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}

func TestMarshalUnmarshalRunRecord(t *testing.T) {
	started := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		run  *core.RunRecord
	}{
		{
			name: "completed run with failures",
			run: &core.RunRecord{
				ID: 7,
				Request: core.Request{
					InputPath:  "/data/corpus.csv",
					OutputDir:  "/out",
					Model:      "all-minilm",
					OutputName: "corpus",
					Format:     "safetensors",
					BatchSize:  32,
				},
				State: core.StateCompleted,
				Stats: core.Snapshot{
					Progress:       100,
					ItemsProcessed: 137,
					TotalItems:     137,
					Speed:          412.5,
					ErrorCount:     32,
					PeakMemoryMB:   88.25,
					EmbeddingDim:   384,
					ModelName:      "all-minilm",
					OutputSizeMB:   0.16,
					Elapsed:        1500 * time.Millisecond,
					BatchIndex:     5,
					BatchCount:     5,
					OutputPath:     "/out/corpus.safetensors",
				},
				FailedRecords: []int{32, 33, 34},
				StartedAt:     started,
				FinishedAt:    started.Add(1500 * time.Millisecond),
			},
		},
		{
			name: "failed run without finish time",
			run: &core.RunRecord{
				ID:        1,
				State:     core.StateFailed,
				Error:     "error reading input: file not found",
				StartedAt: started,
			},
		},
		{
			name: "zero value",
			run:  &core.RunRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalRunRecord(tt.run)
			decoded, err := UnmarshalRunRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.run, decoded)
		})
	}
}

func TestUnmarshalRunRecord_Invalid(t *testing.T) {
	valid := MarshalRunRecord(&core.RunRecord{ID: 3, Error: "boom"})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)/2]},
		{"unknown version", append([]byte{0x7e}, valid[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRunRecord(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
