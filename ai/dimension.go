package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyEmbedding indicates the model returned a zero-length vector.
var ErrEmptyEmbedding = errors.New("model returned an empty embedding")

const probeText = "dimension probe"

// DimensionProbe discovers and caches a model's output dimensionality.
// A failed probe is not cached.
type DimensionProbe struct {
	mu  sync.Mutex
	dim int
}

// NewDimensionProbe returns a probe. A positive declared value is returned
// without contacting the model.
func NewDimensionProbe(declared int) *DimensionProbe {
	return &DimensionProbe{dim: max(declared, 0)}
}

// Dimension returns the cached dimension, embedding a short probe text on first use.
func (p *DimensionProbe) Dimension(ctx context.Context, embed func(ctx context.Context, text string) ([]float32, error)) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dim > 0 {
		return p.dim, nil
	}
	vec, err := embed(ctx, probeText)
	if err != nil {
		return 0, fmt.Errorf("probing embedding dimension: %w", err)
	}
	if len(vec) == 0 {
		return 0, ErrEmptyEmbedding
	}
	p.dim = len(vec)
	return p.dim, nil
}
