package pipeline

import (
	"context"

	"github.com/poiesic/vectorize/core"
)

// Run is a handle on a run launched with Pipeline.Start.
type Run struct {
	done chan struct{}
	out  outcome
}

// outcome is what a finished run produced.
type outcome struct {
	artifact *core.Artifact
	record   *core.RunRecord
	err      error
}

func newRun() *Run {
	return &Run{done: make(chan struct{})}
}

func (r *Run) finish(out outcome) {
	r.out = out
	close(r.done)
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its artifact or error.
func (r *Run) Wait() (*core.Artifact, error) {
	<-r.done
	return r.out.artifact, r.out.err
}

// WaitContext is Wait with an upper bound. The run keeps going if ctx ends
// first.
func (r *Run) WaitContext(ctx context.Context) (*core.Artifact, error) {
	select {
	case <-r.done:
		return r.out.artifact, r.out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Record returns the journal entry for the finished run, or nil while it is
// still running.
func (r *Run) Record() *core.RunRecord {
	select {
	case <-r.done:
		return r.out.record
	default:
		return nil
	}
}
