package notify

import (
	"sync"

	"github.com/poiesic/vectorize/core"
)

// Kind tags an Event.
type Kind int

const (
	KindProgress Kind = iota + 1
	KindCompleted
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindProgress:
		return "progress"
	case KindCompleted:
		return "completed"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one notification. Path is set for KindCompleted, Err for KindFailed.
type Event struct {
	Kind     Kind
	Snapshot core.Snapshot
	Path     string
	Err      error
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Kind == KindCompleted || (e.Kind == KindFailed && core.IsFatal(e.Err))
}

// Channel turns notifications into an Event stream. The stream is closed
// after the terminal event. Sends block once the buffer is full, so the
// consumer must keep draining.
type Channel struct {
	events chan Event
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// NewChannel creates a Channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{events: make(chan Event, max(buffer, 0))}
}

// Events returns the receive side of the stream.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) OnProgress(s core.Snapshot) {
	c.send(Event{Kind: KindProgress, Snapshot: s.Clone()})
}

func (c *Channel) OnCompleted(path string, final core.Snapshot) {
	c.send(Event{Kind: KindCompleted, Snapshot: final.Clone(), Path: path})
}

func (c *Channel) OnError(err error) {
	c.send(Event{Kind: KindFailed, Err: err})
}

// Close ends the stream early. It is safe to call more than once but must
// not race with a run that is still notifying.
func (c *Channel) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.events)
	})
}

func (c *Channel) send(e Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.events <- e
	if e.Terminal() {
		c.Close()
	}
}
