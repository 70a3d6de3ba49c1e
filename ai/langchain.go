package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
)

// LangChainEmbedder adapts a langchaingo embeddings.Embedder to Embedder.
// Provider packages build the client and wrap it here.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
	probe    *DimensionProbe
	logger   *slog.Logger
}

// NewLangChainEmbedder wraps e. declaredDim may be zero, in which case the
// dimension is probed on first request.
func NewLangChainEmbedder(e embeddings.Embedder, declaredDim int, logger *slog.Logger) *LangChainEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LangChainEmbedder{
		embedder: e,
		probe:    NewDimensionProbe(declaredDim),
		logger:   logger,
	}
}

// EmbedText generates a vector embedding for a single text string.
func (e *LangChainEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, ErrEmptyEmbedding
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *LangChainEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("model returned %d vectors for %d texts", len(vectors), len(texts))
	}

	return vectors, nil
}

// Dimension returns the model's vector length, probing once if it was not declared.
func (e *LangChainEmbedder) Dimension(ctx context.Context) (int, error) {
	return e.probe.Dimension(ctx, e.EmbedText)
}
