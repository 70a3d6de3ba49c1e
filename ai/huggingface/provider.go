// Package huggingface implements ai.AIProvider against the Hugging Face
// inference API using the feature-extraction task.
package huggingface

import (
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	hfembed "github.com/tmc/langchaingo/embeddings/huggingface"
	hfllm "github.com/tmc/langchaingo/llms/huggingface"
)

const task = "feature-extraction"

// Provider implements ai.AIProvider using the Hugging Face inference API.
type Provider struct {
	embedder *ai.LangChainEmbedder
	logger   *slog.Logger
}

// NewProvider builds a client for config.Model. An empty Token falls back to
// the HUGGINGFACEHUB_API_TOKEN environment variable; an empty Host uses the
// hosted inference endpoint.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var llmOpts []hfllm.Option
	if config.Token != "" && config.Token != "none" {
		llmOpts = append(llmOpts, hfllm.WithToken(config.Token))
	}
	if config.Host != "" {
		llmOpts = append(llmOpts, hfllm.WithURL(config.Host))
	}
	client, err := hfllm.New(llmOpts...)
	if err != nil {
		return nil, err
	}

	embedder, err := hfembed.NewHuggingface(
		hfembed.WithClient(*client),
		hfembed.WithModel(config.Model),
		hfembed.WithTask(task),
		hfembed.WithStripNewLines(true),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder: ai.NewLangChainEmbedder(embedder, config.Dimensions, slog.Default().With("component", "huggingface-embedder")),
		logger:   slog.Default().With("component", "huggingface-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client needs no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Hugging Face provider")
	return nil
}
