package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocs satisfies langchaingo's embeddings.Embedder.
type fakeDocs struct {
	dim   int
	err   error
	short bool
	calls int
}

func (f *fakeDocs) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeDocs) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, f.dim), f.err
}

func TestLangChainEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("embeds batches", func(t *testing.T) {
		e := NewLangChainEmbedder(&fakeDocs{dim: 3}, 0, nil)
		vecs, err := e.EmbedTexts(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.Len(t, vecs, 2)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		e := NewLangChainEmbedder(&fakeDocs{dim: 3, short: true}, 0, nil)
		_, err := e.EmbedTexts(ctx, []string{"a", "b"})
		assert.Error(t, err)
	})

	t.Run("dimension is probed once", func(t *testing.T) {
		f := &fakeDocs{dim: 5}
		e := NewLangChainEmbedder(f, 0, nil)

		dim, err := e.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, dim)
		_, _ = e.Dimension(ctx)
		assert.Equal(t, 1, f.calls)
	})

	t.Run("declared dimension", func(t *testing.T) {
		f := &fakeDocs{dim: 5}
		e := NewLangChainEmbedder(f, 1024, nil)

		dim, err := e.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1024, dim)
		assert.Zero(t, f.calls)
	})

	t.Run("errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		e := NewLangChainEmbedder(&fakeDocs{err: boom}, 0, nil)
		_, err := e.EmbedText(ctx, "x")
		assert.ErrorIs(t, err, boom)
	})
}
