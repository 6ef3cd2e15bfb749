package kit

// IEventFlag is implemented by code that wants to be notified when one of
// its subscribed bits is signaled on an EventLoop (§4.9).
type IEventFlag interface {
	// EventFlagsMask returns the bitmask of event indices this consumer
	// cares about.
	EventFlagsMask() uint32

	// Notified is called with activeBits = (loop's snapshot & mask) once
	// per wake in which at least one subscribed bit fired. It must not
	// block indefinitely.
	Notified(activeBits uint32)
}

// EventFlagSet is the fixed, registration-ordered list of IEventFlag
// consumers an EventLoop dispatches to, plus the loop's single pending-bits
// word (§4.9). It is built once and attached to an EventLoop via
// WithEventFlags; it may not be mutated afterwards.
type EventFlagSet struct {
	consumers []IEventFlag
	pending   uint32 // mutated only under globalLock / atomically via su paths
}

// NewEventFlagSet builds an EventFlagSet dispatching to consumers in the
// given order.
func NewEventFlagSet(consumers ...IEventFlag) *EventFlagSet {
	return &EventFlagSet{consumers: append([]IEventFlag(nil), consumers...)}
}

// signal ORs bits into pending under the global lock. It returns nothing;
// the EventLoop posts its semaphore unconditionally after every signal.
func (s *EventFlagSet) signal(bits uint32) {
	WithGlobalLock(func() {
		s.pending |= bits
	})
}

// suSignal is signal's ISR-safe form: the caller is assumed to already be
// running with interrupts disabled (or, on the hosted backend, is simply a
// regular goroutine), so no lock is taken (§4.9).
func (s *EventFlagSet) suSignal(bits uint32) {
	s.pending |= bits
}

// snapshotAndClear atomically reads and zeroes pending under the global
// lock, returning the bits that were set (§4.9 step 6).
func (s *EventFlagSet) snapshotAndClear() uint32 {
	var snap uint32
	WithGlobalLock(func() {
		snap = s.pending
		s.pending = 0
	})
	return snap
}

// dispatch walks consumers in registration order, calling Notified on each
// whose mask intersects snap (§4.9 step 7).
func (s *EventFlagSet) dispatch(snap uint32) {
	for _, c := range s.consumers {
		mask := c.EventFlagsMask()
		if snap&mask != 0 {
			c.Notified(snap & mask)
		}
	}
}
