package vectorize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/ai/mock"
	"github.com/poiesic/vectorize/config"
	"github.com/poiesic/vectorize/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("default provider without store", func(t *testing.T) {
		v, err := New()
		require.NoError(t, err)
		defer v.Close()

		assert.NotNil(t, v.Embedder())
		assert.Nil(t, v.Runs())
		assert.Nil(t, v.Cache())
	})

	t.Run("store on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "store")
		v, err := New(WithStore(dir), WithCache(true), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer v.Close()

		assert.NotNil(t, v.Runs())
		assert.NotNil(t, v.Cache())
		assert.DirExists(t, dir)
	})

	t.Run("error with invalid store path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0o644))

		v, err := New(WithStore(file), WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, v)
	})

	t.Run("cache requires store", func(t *testing.T) {
		_, err := New(WithCache(true), WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})

	t.Run("invalid ai config", func(t *testing.T) {
		_, err := New(WithAIConfig(ai.NewConfig(ai.WithProvider("bedrock"))))
		assert.Error(t, err)
	})
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
	}{
		{"openai", ai.ProviderOpenAI, "http://localhost:8000"},
		{"ollama", ai.ProviderOllama, "http://localhost:11434"},
		{"huggingface", ai.ProviderHuggingFace, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ai.NewConfig(ai.WithProvider(tt.provider), ai.WithHost(tt.host), ai.WithToken("tok"))
			p, err := NewProvider(cfg)
			require.NoError(t, err)
			defer p.Close()
			assert.NotNil(t, p.Embedder())
		})
	}
}

func TestWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "store")
	cfg.Store.Cache = true

	v, err := New(WithConfig(cfg), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer v.Close()
	assert.NotNil(t, v.Cache())
}

func TestVectorizer_Close(t *testing.T) {
	provider := mock.NewMockProviderWithEmbedder(mock.NewMockEmbedder())
	v, err := New(WithMemoryStore(), WithProvider(provider))
	require.NoError(t, err)

	require.NoError(t, v.Close())
	assert.True(t, provider.Closed())
}

func TestVectorizer_EmbedderFor(t *testing.T) {
	t.Run("models from the configured backend", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithHost("http://localhost:8000"),
			ai.WithModel("small"), ai.WithToken("tok"))
		v, err := New(WithAIConfig(cfg))
		require.NoError(t, err)
		defer v.Close()

		e, err := v.EmbedderFor("small")
		require.NoError(t, err)
		assert.Same(t, v.Embedder(), e)

		other, err := v.EmbedderFor("large")
		require.NoError(t, err)
		assert.NotSame(t, v.Embedder(), other)

		again, err := v.EmbedderFor("large")
		require.NoError(t, err)
		assert.Same(t, other, again)
	})

	t.Run("supplied provider serves every model", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		v, err := New(WithProvider(mock.NewMockProviderWithEmbedder(embedder)))
		require.NoError(t, err)
		defer v.Close()

		e, err := v.EmbedderFor("anything")
		require.NoError(t, err)
		assert.Same(t, embedder, e)
	})
}

func TestVectorizer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	v, err := New(WithMemoryStore(), WithCache(true), WithProvider(mock.NewMockProviderWithEmbedder(&mock.MockEmbedder{Dim: 8})))
	require.NoError(t, err)
	defer v.Close()

	input := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(input, []byte("alpha\nbeta\ngamma\n"), 0o644))

	p, err := v.NewPipeline()
	require.NoError(t, err)
	defer p.Release()

	art, err := p.Run(ctx, core.Request{
		InputPath:  input,
		OutputDir:  t.TempDir(),
		Model:      "mock",
		OutputName: "corpus",
		Format:     "flat-index",
		BatchSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, art.Rows)

	runs, err := v.Runs().ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.StateCompleted, runs[0].State)

	s, err := v.NewSearcher(art.Path)
	require.NoError(t, err)
	results, err := s.Search(ctx, "beta", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Row)
}
