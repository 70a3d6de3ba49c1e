package embed

import "sync/atomic"

// CancelToken is a cooperative cancellation flag. Any goroutine may set it;
// the scheduler reads it only at batch boundaries.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns a cleared token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests that the current run stop before its next batch.
func (t *CancelToken) Cancel() {
	t.flag.Store(true)
}

// Cancelled reports whether Cancel was called since the last Reset.
func (t *CancelToken) Cancelled() bool {
	return t.flag.Load()
}

// Reset clears the flag. Every run calls it before starting.
func (t *CancelToken) Reset() {
	t.flag.Store(false)
}
