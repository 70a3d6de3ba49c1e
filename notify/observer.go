package notify

import (
	"github.com/poiesic/vectorize/core"
)

// Observer receives run notifications. All calls for a run come from the
// worker goroutine, one at a time.
type Observer interface {
	OnProgress(s core.Snapshot)
	OnCompleted(path string, final core.Snapshot)
	OnError(err error)
}

// Funcs adapts plain callbacks to Observer. Nil slots are skipped.
type Funcs struct {
	Progress  func(s core.Snapshot)
	Completed func(path string, final core.Snapshot)
	Error     func(err error)
}

var _ Observer = Funcs{}

func (f Funcs) OnProgress(s core.Snapshot) {
	if f.Progress != nil {
		f.Progress(s)
	}
}

func (f Funcs) OnCompleted(path string, final core.Snapshot) {
	if f.Completed != nil {
		f.Completed(path, final)
	}
}

func (f Funcs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// Multi fans every notification out to each observer in order.
type Multi []Observer

// NewMulti drops nil observers.
func NewMulti(observers ...Observer) Multi {
	m := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m Multi) OnProgress(s core.Snapshot) {
	for _, o := range m {
		o.OnProgress(s.Clone())
	}
}

func (m Multi) OnCompleted(path string, final core.Snapshot) {
	for _, o := range m {
		o.OnCompleted(path, final.Clone())
	}
}

func (m Multi) OnError(err error) {
	for _, o := range m {
		o.OnError(err)
	}
}

type noopObserver struct{}

func (noopObserver) OnProgress(core.Snapshot)          {}
func (noopObserver) OnCompleted(string, core.Snapshot) {}
func (noopObserver) OnError(error)                     {}

// Noop discards everything.
var Noop Observer = noopObserver{}
