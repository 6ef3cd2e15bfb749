package kit

import (
	"sync"
	"time"
)

// Semaphore is a counting semaphore (§4.4) usable both as a general
// rendezvous primitive and as the sync primitive behind Thread.Wait/Signal.
// Signal/SuSignal never block; Wait/TryWait/TimedWait block the calling
// goroutine only (§4.4: "Wait must only ever be called by the thread that
// owns the semaphore instance in the EventLoop/Thread usage, but the type
// itself is general-purpose").
type Semaphore struct {
	mu     sync.Mutex
	cond   *sync.Cond
	count  int
	max    int // 0 means unbounded
	closed bool
}

// NewSemaphore constructs a Semaphore with the given initial count and no
// upper bound.
func NewSemaphore(initial int) *Semaphore {
	return NewBoundedSemaphore(initial, 0)
}

// NewBoundedSemaphore constructs a Semaphore whose count never exceeds max
// (a Signal past max is dropped, matching a fixed-depth counting semaphore
// on bare metal rather than growing unbounded); max <= 0 means unbounded.
func NewBoundedSemaphore(initial, max int) *Semaphore {
	s := &Semaphore{count: initial, max: max}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Signal increments the count, waking one blocked waiter if any (§4.4).
func (s *Semaphore) Signal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSemaphoreClosed
	}
	if s.max > 0 && s.count >= s.max {
		return nil
	}
	s.count++
	s.cond.Signal()
	return nil
}

// SuSignal is Signal's ISR-safe form (§4.4); identical behavior on the
// hosted backend, see Signalable's doc comment for the rationale.
func (s *Semaphore) SuSignal() error {
	return s.Signal()
}

// Wait blocks until the count is positive, then decrements it. On a sim
// thread (§4.7), it yields to the simulated-tick cooperation protocol
// between checks instead of blocking on the real condition variable, so a
// test driver's Advance can make progress.
func (s *Semaphore) Wait() {
	if t := TryGetCurrent(); t != nil && t.simTick {
		for {
			if s.TryWait() {
				return
			}
			globalSimTick.park(t)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.count > 0 {
		s.count--
	}
}

// TryWait decrements and returns true if the count is positive without
// blocking, otherwise returns false immediately.
func (s *Semaphore) TryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

// TimedWait blocks until the count is positive or timeoutMS elapses,
// returning true iff it acquired. A timeoutMS of 0 behaves like TryWait. On
// a sim thread, the budget is consumed one simulated tick at a time (§4.7)
// rather than by a real-time deadline.
func (s *Semaphore) TimedWait(timeoutMS uint32) bool {
	if timeoutMS == 0 {
		return s.TryWait()
	}

	if t := TryGetCurrent(); t != nil && t.simTick {
		for remaining := timeoutMS; remaining > 0; remaining-- {
			if s.TryWait() {
				return true
			}
			globalSimTick.park(t)
		}
		return s.TryWait()
	}

	deadline := time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)

	// sync.Cond has no timed wait, so a background timer nudges the
	// waiter awake at the deadline; this mirrors the teacher's approach
	// in performance.go of layering a timeout on top of a condition
	// variable rather than reinventing one from channels.
	timer := time.AfterFunc(time.Until(deadline), func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count == 0 && !s.closed {
		if !time.Now().Before(deadline) {
			return false
		}
		s.cond.Wait()
	}
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Count returns the current count, for diagnostics/tests only; do not use
// it to decide whether Wait would block, since it is racy by construction.
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close marks the semaphore closed and wakes every blocked waiter; Wait
// returns immediately without decrementing once closed and count is 0, and
// Signal returns ErrSemaphoreClosed. Intended for coordinated shutdown
// (e.g. EventLoop teardown), not normal operation.
func (s *Semaphore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}
