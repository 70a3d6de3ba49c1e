// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vectorize wires an embedding provider, the run journal and the
// vector cache into pipelines and searchers.
package vectorize

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/ai/huggingface"
	"github.com/poiesic/vectorize/ai/ollama"
	"github.com/poiesic/vectorize/ai/openai"
	"github.com/poiesic/vectorize/config"
	"github.com/poiesic/vectorize/pipeline"
	"github.com/poiesic/vectorize/search"
	"github.com/poiesic/vectorize/storage"
	"github.com/poiesic/vectorize/storage/badger"
)

// Vectorizer owns the long-lived resources shared by runs.
type Vectorizer struct {
	backend  *badger.Backend
	runs     *badger.RunRepository
	cache    *badger.VectorCache
	provider ai.AIProvider
	aiConfig *ai.Config
	logger   *slog.Logger

	mu     sync.Mutex
	models map[string]ai.AIProvider
}

// Option configures a Vectorizer.
type Option func(*options)

type options struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	storePath string
	inMemory  bool
	cache     bool
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an already constructed provider instead of building
// one from the AI config. The Vectorizer closes it on Close.
func WithProvider(p ai.AIProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithStore keeps the run journal (and the vector cache, if enabled) in a
// BadgerDB directory at path.
func WithStore(path string) Option {
	return func(o *options) {
		o.storePath = path
	}
}

// WithMemoryStore keeps the journal and cache in memory.
func WithMemoryStore() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithCache enables the vector cache. Requires a store.
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

// WithConfig applies the provider and store sections of a loaded config.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg.AIConfig()
		o.storePath = cfg.Store.Path
		o.cache = cfg.Store.Cache
	}
}

// New creates a Vectorizer.
func New(opts ...Option) (*Vectorizer, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	v := &Vectorizer{
		aiConfig: o.aiConfig,
		logger:   slog.Default().With("component", "vectorize"),
		models:   make(map[string]ai.AIProvider),
	}

	if o.storePath != "" || o.inMemory {
		backend, err := badger.OpenBackend(o.storePath, o.inMemory)
		if err != nil {
			return nil, err
		}
		v.backend = backend

		runs, err := badger.NewRunRepository(backend)
		if err != nil {
			v.Close()
			return nil, err
		}
		v.runs = runs

		if o.cache {
			cache, err := badger.NewVectorCache(backend)
			if err != nil {
				v.Close()
				return nil, err
			}
			v.cache = cache
		}
	} else if o.cache {
		return nil, fmt.Errorf("vector cache requires a store")
	}

	provider := o.provider
	if provider != nil {
		// a supplied provider serves every model
		v.aiConfig = nil
	} else {
		var err error
		provider, err = NewProvider(o.aiConfig)
		if err != nil {
			v.Close()
			return nil, err
		}
	}
	v.provider = provider

	return v, nil
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(cfg)
	case ai.ProviderHuggingFace:
		return huggingface.NewProvider(cfg)
	default:
		return openai.NewProvider(cfg)
	}
}

// Close releases the providers and the store.
func (v *Vectorizer) Close() error {
	if v.provider != nil {
		if err := v.provider.Close(); err != nil {
			v.logger.Error("error closing AI provider", "err", err)
		}
	}
	v.mu.Lock()
	for model, p := range v.models {
		if err := p.Close(); err != nil {
			v.logger.Error("error closing AI provider", "model", model, "err", err)
		}
	}
	clear(v.models)
	v.mu.Unlock()

	if v.runs != nil {
		if err := v.runs.Close(); err != nil {
			v.logger.Error("error closing run repository", "err", err)
			return err
		}
	}

	if v.backend != nil {
		if err := v.backend.Close(); err != nil {
			v.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// Embedder returns the provider's embedder.
func (v *Vectorizer) Embedder() ai.Embedder {
	return v.provider.Embedder()
}

// EmbedderFor returns an embedder for model. The configured model, or an
// empty name, gets the main provider's embedder. Other models get a
// provider built from the same settings, kept until Close.
func (v *Vectorizer) EmbedderFor(model string) (ai.Embedder, error) {
	if model == "" || v.aiConfig == nil || model == v.aiConfig.Model {
		return v.Embedder(), nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.models[model]; ok {
		return p.Embedder(), nil
	}

	cfg := *v.aiConfig
	cfg.Model = model
	// the declared dimension belongs to the configured model
	cfg.Dimensions = 0
	p, err := NewProvider(&cfg)
	if err != nil {
		return nil, err
	}
	v.logger.Debug("created provider", "model", model)
	v.models[model] = p
	return p.Embedder(), nil
}

// Runs returns the run journal, or nil when no store is configured.
func (v *Vectorizer) Runs() storage.RunRepository {
	if v.runs == nil {
		return nil
	}
	return v.runs
}

// Cache returns the vector cache, or nil when it is disabled.
func (v *Vectorizer) Cache() storage.VectorCache {
	if v.cache == nil {
		return nil
	}
	return v.cache
}

// NewPipeline creates a pipeline that encodes each run with its request's
// model, journals runs and uses the vector cache when they are configured.
// Later options override these.
func (v *Vectorizer) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	base := []pipeline.Option{pipeline.WithEmbedderFactory(v.EmbedderFor)}
	if runs := v.Runs(); runs != nil {
		base = append(base, pipeline.WithJournal(runs))
	}
	if cache := v.Cache(); cache != nil {
		base = append(base, pipeline.WithCache(cache))
	}
	return pipeline.New(v.Embedder(), append(base, opts...)...)
}

// NewSearcher opens a flat-index artifact for querying.
func (v *Vectorizer) NewSearcher(path string, opts ...search.Option) (*search.Searcher, error) {
	return search.Open(path, v.Embedder(), opts...)
}
