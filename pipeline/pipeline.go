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

package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/embed"
	"github.com/poiesic/vectorize/notify"
	"github.com/poiesic/vectorize/storage"
)

// Pipeline runs embedding requests one at a time.
type Pipeline struct {
	embedder  ai.Embedder
	factory   EmbedderFactory
	worker    *ants.Pool
	token     *embed.CancelToken
	active    atomic.Bool
	observer  notify.Observer
	monitor   embed.ResourceMonitor
	journal   storage.RunRepository
	cache     storage.VectorCache
	normalize bool
	logger    *slog.Logger
}

// EmbedderFactory returns the embedder that encodes with model.
type EmbedderFactory func(model string) (ai.Embedder, error)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithObserver receives every notification of every run.
func WithObserver(o notify.Observer) Option {
	return func(p *Pipeline) error {
		if o == nil {
			o = notify.Noop
		}
		p.observer = o
		return nil
	}
}

// WithMonitor sets the memory sampler used in snapshots.
func WithMonitor(m embed.ResourceMonitor) Option {
	return func(p *Pipeline) error {
		p.monitor = m
		return nil
	}
}

// WithJournal records every finished run in repo.
func WithJournal(repo storage.RunRepository) Option {
	return func(p *Pipeline) error {
		p.journal = repo
		return nil
	}
}

// WithCache serves previously embedded texts from cache.
func WithCache(cache storage.VectorCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithEmbedderFactory resolves each run's embedder from its request model.
// Without a factory every run uses the embedder given to New.
func WithEmbedderFactory(f EmbedderFactory) Option {
	return func(p *Pipeline) error {
		p.factory = f
		return nil
	}
}

// WithNormalize scales every vector to unit length before serialization.
func WithNormalize(enabled bool) Option {
	return func(p *Pipeline) error {
		p.normalize = enabled
		return nil
	}
}

// New creates a pipeline around embedder.
func New(embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	worker, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder: embedder,
		worker:   worker,
		token:    embed.NewCancelToken(),
		observer: notify.Noop,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Start launches a run on the pipeline's worker and returns immediately.
func (p *Pipeline) Start(ctx context.Context, req core.Request) (*Run, error) {
	if !p.active.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	p.token.Reset()

	run := newRun()
	err := p.worker.Submit(func() {
		out := p.execute(ctx, req)
		// cleared before done closes so Wait callers can start again
		p.active.Store(false)
		run.finish(out)
	})
	if err != nil {
		p.active.Store(false)
		return nil, err
	}
	return run, nil
}

// Run executes a run on the caller's goroutine and returns its artifact.
func (p *Pipeline) Run(ctx context.Context, req core.Request) (*core.Artifact, error) {
	if !p.active.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer p.active.Store(false)
	p.token.Reset()

	out := p.execute(ctx, req)
	return out.artifact, out.err
}

// Cancel asks the active run to stop before its next batch.
func (p *Pipeline) Cancel() {
	p.token.Cancel()
}

// Active reports whether a run is in progress.
func (p *Pipeline) Active() bool {
	return p.active.Load()
}

// Release stops the worker. The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.worker != nil {
		p.worker.Release()
	}
}
