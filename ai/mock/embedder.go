package mock

import (
	"context"
	"hash/fnv"
	"sync"
)

// DefaultDim is the vector length produced when Dim is unset.
const DefaultDim = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// Dim is the dimensionality of generated vectors. Zero means DefaultDim.
	Dim int

	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// DimensionFunc is called by Dimension if set.
	DimensionFunc func(ctx context.Context) (int, error)

	mu         sync.Mutex
	callCount  int
	batchSizes []int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.record(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return GenerateVector(text, m.dim()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.record(len(texts))

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = GenerateVector(text, m.dim())
	}
	return embeddings, nil
}

// Dimension returns Dim, or DimensionFunc's answer when set.
// It does not count as a call.
func (m *MockEmbedder) Dimension(ctx context.Context) (int, error) {
	if m.DimensionFunc != nil {
		return m.DimensionFunc(ctx)
	}
	return m.dim(), nil
}

// CallCount returns the number of embed calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// BatchSizes returns the number of texts passed to each embed call, in order.
func (m *MockEmbedder) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batchSizes...)
}

// Reset clears the call history and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.batchSizes = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.DimensionFunc = nil
}

func (m *MockEmbedder) record(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.batchSizes = append(m.batchSizes, n)
}

func (m *MockEmbedder) dim() int {
	if m.Dim > 0 {
		return m.Dim
	}
	return DefaultDim
}

// GenerateVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func GenerateVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
