// Package mock provides test double implementations of the ai interfaces.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.Dim = 8
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("model offline")
//	}
//
//	count := embedder.CallCount()
//
// # Default Behavior
//
// MockEmbedder returns deterministic vectors derived from an FNV hash of
// the text, so identical input always yields identical output. MockProvider
// wraps a MockEmbedder.
package mock
