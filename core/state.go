package core

import "fmt"

// RunState is a position in the run lifecycle.
type RunState int

const (
	StateIdle RunState = iota
	StateExtracting
	StateEmbedding
	StateSerializing
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateExtracting:  "extracting",
	StateEmbedding:   "embedding",
	StateSerializing: "serializing",
	StateCompleted:   "completed",
	StateFailed:      "failed",
	StateCancelled:   "cancelled",
}

func (s RunState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("RunState(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are allowed from s.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to RunState) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	switch from {
	case StateIdle:
		return to == StateExtracting
	case StateExtracting:
		return to == StateEmbedding
	case StateEmbedding:
		return to == StateSerializing || to == StateCancelled
	case StateSerializing:
		return to == StateCompleted
	}
	return false
}

// StateMachine tracks a single run. It is not safe for concurrent use.
type StateMachine struct {
	state RunState
}

// NewStateMachine returns a machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateIdle}
}

// State returns the current state.
func (m *StateMachine) State() RunState {
	return m.state
}

// Transition moves to the next state or returns ErrInvalidTransition.
func (m *StateMachine) Transition(to RunState) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}
