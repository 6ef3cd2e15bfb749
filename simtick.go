package kit

import (
	"sync"
	"time"
)

// SimTick is the process-wide simulated-time engine described in §4.7: a
// handful of goroutines opt in (via ThreadOption WithSimTicks) and become
// "sim threads" whose Clock queries, Semaphore waits and Thread waits all
// advance in lockstep with an external driver rather than wall-clock time,
// making timing-sensitive tests deterministic.
//
// The cooperation protocol is grounded on Semaphore.cpp/SimTick.h in the
// original source: a sim thread wanting to block parks at a cooperation
// point one virtual tick at a time instead of sleeping in real time; the
// driver's Advance repeatedly waits for every sim thread to park, advances
// the virtual clock by one millisecond, and wakes them all. After the last
// tick's wake-up it returns without waiting for the threads to park again.
type SimTick struct {
	mu           sync.Mutex
	virtualMS    uint64
	participants map[*Thread]*simParticipant
}

type simParticipant struct {
	parked chan struct{} // thread -> driver: "I am parked"
	resume chan struct{} // driver -> thread: "one tick elapsed, recheck"
}

func newSimParticipant() *simParticipant {
	return &simParticipant{
		parked: make(chan struct{}, 1),
		resume: make(chan struct{}, 1),
	}
}

var globalSimTick = newSimTick()

func newSimTick() *SimTick {
	return &SimTick{participants: make(map[*Thread]*simParticipant)}
}

func (s *SimTick) registerParticipant(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[t] = newSimParticipant()
}

func (s *SimTick) unregisterParticipant(t *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, t)
}

func (s *SimTick) virtualNowMSEx() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.virtualMS
}

// park is called by a sim thread's blocking wait loop (Semaphore.Wait/
// TimedWait, Thread.Wait/TimedWait) between polls: it tells the driver this
// thread has reached a cooperation point and blocks until Advance grants
// one virtual tick.
func (s *SimTick) park(t *Thread) {
	s.mu.Lock()
	p, ok := s.participants[t]
	s.mu.Unlock()
	if !ok {
		// Not actually a registered participant (e.g. called after
		// unregisterParticipant during shutdown); fall back to a short
		// real-time yield rather than blocking forever.
		time.Sleep(time.Millisecond)
		return
	}

	select {
	case p.parked <- struct{}{}:
	default:
	}
	<-p.resume
}

// spinBudget bounds how long Advance waits, in real time, for every
// participant to reach its cooperation point before concluding that a sim
// thread is spinning without yielding (§4.7's "if a sim thread spins
// without yielding, advance eventually returns false").
const spinBudget = 2 * time.Second

// Advance drives the simulated clock forward by n milliseconds, one tick at
// a time, per §4.7's four-step protocol. It returns false immediately if
// there are no registered sim threads, or if any tick's participants fail
// to park within spinBudget (signaling a non-yielding thread bug rather
// than hanging the test forever).
func (s *SimTick) Advance(n int) bool {
	if n <= 0 {
		return true
	}

	for i := 0; i < n; i++ {
		s.mu.Lock()
		if len(s.participants) == 0 {
			s.mu.Unlock()
			return false
		}
		snapshot := make([]*simParticipant, 0, len(s.participants))
		for _, p := range s.participants {
			snapshot = append(snapshot, p)
		}
		s.mu.Unlock()

		if !waitAllParked(snapshot, spinBudget) {
			return false
		}

		s.mu.Lock()
		s.virtualMS++
		s.mu.Unlock()

		for _, p := range snapshot {
			select {
			case p.resume <- struct{}{}:
			default:
			}
		}
	}
	return true
}

// waitAllParked blocks until every participant in snapshot has sent on its
// parked channel, or budget elapses.
func waitAllParked(snapshot []*simParticipant, budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	remaining := snapshot
	for len(remaining) > 0 {
		next := remaining[:0]
		for _, p := range remaining {
			select {
			case <-p.parked:
			default:
				next = append(next, p)
			}
		}
		remaining = next
		if len(remaining) == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Advance drives the process-wide simulated clock; see SimTick.Advance.
func Advance(nTicks int) bool {
	return globalSimTick.Advance(nTicks)
}

// UsingSimTicks reports whether the calling goroutine's Thread opted into
// simulated time (mirrors SimTick::usingSimTicks in the original source).
func UsingSimTicks() bool {
	return isCurrentGoroutineSimThread()
}

// SimSleep consumes ms simulated ticks one at a time when called from a sim
// thread, or sleeps in real time otherwise (§4.7's sleep(ms) contract).
func SimSleep(ms uint32) {
	t := TryGetCurrent()
	if t == nil || !t.simTick {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return
	}
	for i := uint32(0); i < ms; i++ {
		globalSimTick.park(t)
	}
}
