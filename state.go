package kit

import "sync/atomic"

// LoopState is an EventLoop's lifecycle state (§4.10):
// Constructed -> Running -> Stopping -> Stopped.
type LoopState uint32

const (
	// StateConstructed is the initial state: built but Run not yet called.
	StateConstructed LoopState = iota
	// StateRunning indicates entry() is actively dispatching wakes.
	StateRunning
	// StateStopping indicates PleaseStop has latched, but entry() has not
	// yet observed it and returned.
	StateStopping
	// StateStopped is terminal: entry() has returned.
	StateStopped
)

func (s LoopState) String() string {
	switch s {
	case StateConstructed:
		return "Constructed"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine over LoopState, following the
// teacher's atomic-CAS state type: state transitions are rare compared to
// the hot wait/dispatch path, so a single atomic word avoids taking a lock
// just to check "are we still running" on every wake.
type FastState struct {
	v atomic.Uint32
}

// NewFastState returns a FastState initialized to StateConstructed.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint32(StateConstructed))
	return s
}

// Load returns the current state.
func (s *FastState) Load() LoopState {
	return LoopState(s.v.Load())
}

// Store unconditionally sets the state.
func (s *FastState) Store(state LoopState) {
	s.v.Store(uint32(state))
}

// TryTransition performs a CAS from `from` to `to`, returning whether it
// succeeded.
func (s *FastState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
