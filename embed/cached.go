package embed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
)

// CachedEmbedder serves vectors for previously seen texts from a
// storage.VectorCache and encodes only the misses. Cache failures are
// logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	embedder ai.Embedder
	cache    storage.VectorCache
	model    string
	logger   *slog.Logger
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps embedder with cache. Entries are scoped by model.
func NewCachedEmbedder(embedder ai.Embedder, cache storage.VectorCache, model string, logger *slog.Logger) (*CachedEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
		model:    model,
		logger:   logger.With("component", "vector-cache"),
	}, nil
}

// EmbedText embeds a single text through the cache.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedTexts returns one vector per text, encoding only uncached texts.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	ids := make([]core.ID, len(texts))
	for i, text := range texts {
		ids[i] = core.IDFromContent(text)
	}

	hits, err := c.cache.GetVectors(ctx, c.model, ids...)
	if err != nil {
		c.logger.Warn("cache read failed", "err", err)
		hits = nil
	}

	// Encode each distinct missing text once
	var missTexts []string
	missAt := make(map[core.ID]int)
	for i, id := range ids {
		if _, ok := hits[id]; ok {
			continue
		}
		if _, ok := missAt[id]; ok {
			continue
		}
		missAt[id] = len(missTexts)
		missTexts = append(missTexts, texts[i])
	}

	var fresh [][]float32
	if len(missTexts) > 0 {
		fresh, err = c.embedder.EmbedTexts(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(missTexts), len(fresh))
		}
		c.store(ctx, missAt, fresh)
	}

	out := make([][]float32, len(texts))
	for i, id := range ids {
		if v, ok := hits[id]; ok {
			out[i] = v
		} else {
			out[i] = fresh[missAt[id]]
		}
	}

	c.logger.Debug("embedded through cache", "texts", len(texts), "hits", len(texts)-countMisses(ids, hits))
	return out, nil
}

// Dimension delegates to the wrapped embedder.
func (c *CachedEmbedder) Dimension(ctx context.Context) (int, error) {
	return c.embedder.Dimension(ctx)
}

// store writes freshly encoded vectors. Empty vectors are never cached.
func (c *CachedEmbedder) store(ctx context.Context, missAt map[core.ID]int, fresh [][]float32) {
	entries := make(map[core.ID][]float32, len(missAt))
	for id, i := range missAt {
		if len(fresh[i]) > 0 {
			entries[id] = fresh[i]
		}
	}
	if err := c.cache.PutVectors(ctx, c.model, entries); err != nil {
		c.logger.Warn("cache write failed", "err", err)
	}
}

func countMisses(ids []core.ID, hits map[core.ID][]float32) int {
	n := 0
	for _, id := range ids {
		if _, ok := hits[id]; !ok {
			n++
		}
	}
	return n
}
