package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/vectorize/ai"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/embed"
	"github.com/poiesic/vectorize/export"
	"github.com/poiesic/vectorize/extract"
)

// execute performs one run. It emits exactly one terminal notification:
// OnCompleted on success, otherwise a single fatal OnError.
func (p *Pipeline) execute(ctx context.Context, req core.Request) outcome {
	sm := core.NewStateMachine()
	record := &core.RunRecord{
		Request:   req,
		StartedAt: time.Now().UTC(),
	}
	logger := p.logger.With("input", req.InputPath, "model", req.Model)

	fail := func(to core.RunState, err error, stats core.Snapshot) outcome {
		if tErr := sm.Transition(to); tErr != nil {
			logger.Error("invalid state transition", "err", tErr)
		}
		record.State = sm.State()
		record.Error = err.Error()
		record.Stats = stats
		record.FailedRecords = stats.FailedRecords
		saved := p.saveRecord(ctx, record)
		p.observer.OnError(err)
		return outcome{record: saved, err: err}
	}

	if err := core.ValidateRequest(&req); err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	format, err := core.ParseFormat(req.Format)
	if err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	if err := export.Supported(format); err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	embedder, err := p.embedderFor(req.Model)
	if err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}

	// Extract
	if err := sm.Transition(core.StateExtracting); err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	records, err := extract.Extract(ctx, req.InputPath)
	if err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	logger.Info("extracted records", "count", len(records))

	// Embed
	if err := sm.Transition(core.StateEmbedding); err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	scheduler, err := p.newScheduler(req, embedder)
	if err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}
	result, err := scheduler.Run(ctx, records)
	if errors.Is(err, core.ErrCancelled) {
		logger.Info("run cancelled")
		return fail(core.StateCancelled, err, core.Snapshot{ModelName: req.Model, TotalItems: len(records)})
	}
	if err != nil {
		return fail(core.StateFailed, err, core.Snapshot{})
	}

	// Serialize
	if err := sm.Transition(core.StateSerializing); err != nil {
		return fail(core.StateFailed, err, result.Stats)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fail(core.StateFailed, fmt.Errorf("%w: %v", core.ErrSerialize, err), result.Stats)
	}
	path := core.ArtifactPath(req.OutputDir, req.OutputName, format)
	artifact, err := export.Write(result.Vectors, result.Dim, path, format, export.Metadata{Model: req.Model})
	if err != nil {
		stats := result.Stats
		stats.FailedRecords = result.FailedRecords
		return fail(core.StateFailed, err, stats)
	}

	final := result.Final(ctx, artifact)
	if err := sm.Transition(core.StateCompleted); err != nil {
		return fail(core.StateFailed, err, final)
	}

	record.State = sm.State()
	record.Stats = final
	record.FailedRecords = final.FailedRecords
	saved := p.saveRecord(ctx, record)

	logger.Info("run completed", "path", artifact.Path, "rows", artifact.Rows, "dim", artifact.Dim, "failed", len(final.FailedRecords))
	p.observer.OnCompleted(artifact.Path, final)
	return outcome{artifact: artifact, record: saved}
}

// embedderFor resolves the encoder for model. Without a factory every model
// is served by the pipeline's embedder.
func (p *Pipeline) embedderFor(model string) (ai.Embedder, error) {
	if p.factory == nil {
		return p.embedder, nil
	}
	embedder, err := p.factory(model)
	if err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", core.ErrInvalidRequest, model, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedder for model %q", core.ErrInvalidRequest, model)
	}
	return embedder, nil
}

// newScheduler builds a scheduler for req around embedder, going through the
// vector cache when one is configured.
func (p *Pipeline) newScheduler(req core.Request, embedder ai.Embedder) (*embed.Scheduler, error) {
	if p.cache != nil {
		cached, err := embed.NewCachedEmbedder(embedder, p.cache, req.Model, p.logger)
		if err != nil {
			return nil, err
		}
		embedder = cached
	}

	return embed.NewScheduler(embedder,
		embed.WithBatchSize(req.BatchSize),
		embed.WithCancelToken(p.token),
		embed.WithObserver(p.observer),
		embed.WithMonitor(p.monitor),
		embed.WithNormalize(p.normalize),
		embed.WithModelName(req.Model),
		embed.WithLogger(p.logger),
	)
}

// saveRecord journals a finished run. Journal failures are logged, never
// reported to the observer.
func (p *Pipeline) saveRecord(ctx context.Context, record *core.RunRecord) *core.RunRecord {
	record.FinishedAt = time.Now().UTC()
	if p.journal == nil {
		return record
	}

	saved, err := p.journal.SaveRun(context.WithoutCancel(ctx), record)
	if err != nil {
		p.logger.Warn("failed to journal run", "state", record.State, "err", err)
		return record
	}
	return saved
}
