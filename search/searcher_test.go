package search

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 16

var corpus = []string{
	"The quick brown fox jumps over the lazy dog",
	"A stitch in time saves nine",
	"Rome was not built in a day",
	"Brown bears fish for salmon in the river",
	"Time flies like an arrow",
}

func buildIndex(t *testing.T, texts []string) *export.FlatIndex {
	t.Helper()
	ix := export.NewFlatIndex(testDim)
	for _, text := range texts {
		require.NoError(t, ix.Add(mock.GenerateVector(text, testDim)))
	}
	return ix
}

func records(texts []string) []core.Record {
	out := make([]core.Record, len(texts))
	for i, text := range texts {
		out[i] = core.NewRecord(i, text)
	}
	return out
}

// testMonitor records the stages it sees.
type testMonitor struct {
	stages []string
	hits   int
}

func (m *testMonitor) Start(string)                          { m.stages = append(m.stages, "start") }
func (m *testMonitor) AfterEmbedding([]float32)              { m.stages = append(m.stages, "embed") }
func (m *testMonitor) AfterIndexSearch(n []export.Neighbor) { m.stages = append(m.stages, "index") }
func (m *testMonitor) Finish(results []Result) {
	m.stages = append(m.stages, "finish")
	m.hits = len(results)
}

func TestNewSearcher(t *testing.T) {
	ix := buildIndex(t, corpus)
	e := &mock.MockEmbedder{Dim: testDim}

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(ix, e)
		require.NoError(t, err)
		assert.Equal(t, len(corpus), s.Len())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		_, err := NewSearcher(ix, e, WithLogger(nil))
		require.NoError(t, err)
	})

	t.Run("with custom logger", func(t *testing.T) {
		_, err := NewSearcher(ix, e, WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(nil, e)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(ix, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("records must cover every row", func(t *testing.T) {
		_, err := NewSearcher(ix, e, WithRecords(records(corpus[:3]), nil))
		assert.ErrorIs(t, err, ErrRowMismatch)
	})
}

func TestSearch_ExactMatchFirst(t *testing.T) {
	s, err := NewSearcher(buildIndex(t, corpus), &mock.MockEmbedder{Dim: testDim}, WithRecords(records(corpus), nil))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), corpus[2], 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 2, results[0].Row)
	assert.Equal(t, 2, results[0].Record)
	assert.Equal(t, corpus[2], results[0].Text)
	assert.Zero(t, results[0].Distance)
	assert.True(t, results[0].Verbatim)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Distance, results[i-1].Distance)
	}
}

func TestSearch_WithoutRecords(t *testing.T) {
	s, err := NewSearcher(buildIndex(t, corpus), &mock.MockEmbedder{Dim: testDim})
	require.NoError(t, err)

	results, err := s.Search(context.Background(), corpus[0], 10)
	require.NoError(t, err)
	require.Len(t, results, len(corpus))
	assert.Equal(t, -1, results[0].Record)
	assert.Empty(t, results[0].Text)
}

func TestSearch_MapsRowsAroundFailedRecords(t *testing.T) {
	// Records 1 and 2 failed, so the index holds records 0, 3, 4
	recs := records(corpus)
	failed := []int{1, 2}
	kept := []string{corpus[0], corpus[3], corpus[4]}

	s, err := NewSearcher(buildIndex(t, kept), &mock.MockEmbedder{Dim: testDim}, WithRecords(recs, failed))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), corpus[3], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Row)
	assert.Equal(t, 3, results[0].Record)
	assert.Equal(t, corpus[3], results[0].Text)
}

func TestSearch_EmbedderError(t *testing.T) {
	boom := errors.New("boom")
	e := &mock.MockEmbedder{Dim: testDim}
	e.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, boom
	}
	s, err := NewSearcher(buildIndex(t, corpus), e)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, boom)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	s, err := NewSearcher(buildIndex(t, corpus), &mock.MockEmbedder{Dim: testDim * 2})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "anything", 3)
	assert.ErrorIs(t, err, export.ErrDimensionMismatch)
}

func TestSearch_NormalizeQuery(t *testing.T) {
	ix := export.NewFlatIndex(2)
	require.NoError(t, ix.Add([]float32{1, 0}, []float32{10, 0}))

	e := &mock.MockEmbedder{Dim: 2}
	e.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return []float32{10, 0}, nil
	}

	plain, err := NewSearcher(ix, e)
	require.NoError(t, err)
	results, err := plain.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Row)

	normalized, err := NewSearcher(ix, e, WithNormalizeQuery(true))
	require.NoError(t, err)
	results, err = normalized.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Row)
}

func TestSearchWithMonitor(t *testing.T) {
	s, err := NewSearcher(buildIndex(t, corpus), &mock.MockEmbedder{Dim: testDim})
	require.NoError(t, err)

	m := &testMonitor{}
	_, err = s.SearchWithMonitor(context.Background(), corpus[1], 2, m)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "embed", "index", "finish"}, m.stages)
	assert.Equal(t, 2, m.hits)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.flat-index")
	vectors := make([][]float32, len(corpus))
	for i, text := range corpus {
		vectors[i] = mock.GenerateVector(text, testDim)
	}
	_, err := export.Write(vectors, testDim, path, core.FormatFlatIndex, export.Metadata{})
	require.NoError(t, err)

	s, err := Open(path, &mock.MockEmbedder{Dim: testDim}, WithRecords(records(corpus), nil))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), corpus[4], 1)
	require.NoError(t, err)
	assert.Equal(t, 4, results[0].Record)

	_, err = Open(filepath.Join(t.TempDir(), "missing.flat-index"), &mock.MockEmbedder{})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestVerbatim(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{"all terms present", "brown fox", "The quick brown fox", true},
		{"case and punctuation ignored", "Fox!", "a fox, quickly", true},
		{"missing term", "brown cat", "The quick brown fox", false},
		{"stop words ignored", "the fox", "fox", true},
		{"only stop words", "the of and", "the of and", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, verbatim(terms(tt.query), tt.text))
		})
	}
}
