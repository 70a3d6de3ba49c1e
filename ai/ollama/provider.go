// Package ollama implements ai.AIProvider against the native Ollama API.
package ollama

import (
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements ai.AIProvider using an Ollama server.
type Provider struct {
	embedder *ai.LangChainEmbedder
	logger   *slog.Logger
}

// NewProvider connects to the Ollama server at config.Host.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.Host),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder: ai.NewLangChainEmbedder(embedder, config.Dimensions, slog.Default().With("component", "ollama-embedder")),
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client needs no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
