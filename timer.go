package kit

import (
	"sync"
	"sync/atomic"
)

// Counter is a single countdown registered with a TimerManager (§4.8). Its
// exported fields and methods are deliberately minimal: callers build one
// with NewCounter and hand it to TimerManager.Attach; everything else is
// the manager's delta-list bookkeeping.
type Counter struct {
	onExpired func()

	// remaining is the counter's own countdown value. While attached to
	// the active list it holds the *delta* from the previous element
	// (or from "now", for the head); while unattached or pending it
	// holds the absolute duration passed to NewCounter.
	remaining uint32

	list       *timerList // list currently holding this counter, nil if detached
	prev, next *Counter
}

// NewCounter builds a Counter that will call onExpired once durationMS
// after it is attached to a TimerManager.
func NewCounter(durationMS uint32, onExpired func()) *Counter {
	return &Counter{remaining: durationMS, onExpired: onExpired}
}

// timerList is an intrusive doubly linked list of Counters, adapted from
// the original source's ICounter collection (TimerManager.cpp): the active
// list is always kept in expiration order with each non-head element's
// remaining value storing the delta from its predecessor, and the pending
// list is an unordered staging area for attachments made mid-tick.
type timerList struct {
	head, tail *Counter
}

func (l *timerList) first() *Counter { return l.head }

func (l *timerList) next(c *Counter) *Counter { return c.next }

func (l *timerList) find(c *Counter) bool { return c.list == l }

// putLast appends c at the tail, unconditionally (used both for simple
// staging-list appends and as the active list's fallback insert position).
func (l *timerList) putLast(c *Counter) {
	c.list = l
	c.prev = l.tail
	c.next = nil
	if l.tail != nil {
		l.tail.next = c
	} else {
		l.head = c
	}
	l.tail = c
}

func (l *timerList) insertBefore(mark, c *Counter) {
	c.list = l
	c.next = mark
	c.prev = mark.prev
	if mark.prev != nil {
		mark.prev.next = c
	} else {
		l.head = c
	}
	mark.prev = c
}

func (l *timerList) insertAfter(mark, c *Counter) {
	c.list = l
	c.prev = mark
	c.next = mark.next
	if mark.next != nil {
		mark.next.prev = c
	} else {
		l.tail = c
	}
	mark.next = c
}

// remove detaches c from l, returning false if c was not a member.
func (l *timerList) remove(c *Counter) bool {
	if c.list != l {
		return false
	}
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		l.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		l.tail = c.prev
	}
	c.prev, c.next, c.list = nil, nil, nil
	return true
}

// TimerManager is the delta-sorted software timer list described in §4.8,
// driven once per EventLoop wake by ProcessTimers.
type TimerManager struct {
	mu sync.Mutex

	listA, listB    timerList
	active, pending *timerList

	timeMark uint64
	started  bool
	inTick   bool

	fired atomic.Uint64
}

// FiredCount returns the total number of counters that have expired over
// this manager's lifetime, for diagnostics (see Metrics).
func (m *TimerManager) FiredCount() uint64 {
	return m.fired.Load()
}

// NewTimerManager constructs an empty TimerManager. Call Start once the
// owning EventLoop begins running, so the first ProcessTimers computes a
// sane initial delta instead of measuring from the zero time.
func NewTimerManager() *TimerManager {
	m := &TimerManager{}
	m.active = &m.listA
	m.pending = &m.listB
	return m
}

// Start marks "now" as the manager's time-zero reference point.
func (m *TimerManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeMark = NowMSEx()
	m.started = true
}

// Attach registers counter to fire once its configured duration elapses.
// If called while ProcessTimers/tick is in progress, the counter is staged
// on the pending list and spliced into the active list only once the
// in-progress tick completes (§4.8's deferral invariant).
func (m *TimerManager) Attach(counter *Counter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inTick {
		m.pending.putLast(counter)
		return
	}
	m.addToActiveList(counter)
}

// addToActiveList splices counter into m.active in ascending-expiration
// order, delta-encoding its remaining value against its neighbors; must be
// called with mu held. Grounded directly on
// TimerManager::addToActiveList in the original source.
func (m *TimerManager) addToActiveList(counter *Counter) {
	cur := m.active.first()
	for cur != nil {
		if counter.remaining < cur.remaining {
			cur.remaining -= counter.remaining
			m.active.insertBefore(cur, counter)
			return
		}
		counter.remaining -= cur.remaining
		if counter.remaining == 0 {
			m.active.insertAfter(cur, counter)
			return
		}
		cur = m.active.next(cur)
	}
	m.active.putLast(counter)
}

// Detach cancels counter, returning false if it was not registered with
// this manager. Safe to call from within an expiring counter's own
// onExpired callback (§4.8).
func (m *TimerManager) Detach(counter *Counter) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending.remove(counter) {
		return true
	}
	if m.active.find(counter) {
		if next := m.active.next(counter); next != nil {
			next.remaining += counter.remaining
		}
		m.active.remove(counter)
		return true
	}
	return false
}

// AreActiveTimers reports whether any counter is currently attached
// (active or pending).
func (m *TimerManager) AreActiveTimers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.first() != nil || m.pending.first() != nil
}

// ProcessTimers computes the elapsed time since the previous call (or
// Start), advances the delta list by that amount, and fires every counter
// that reaches zero (§4.8). It must be called once per EventLoop wake from
// the loop's own goroutine.
func (m *TimerManager) ProcessTimers() {
	m.mu.Lock()
	if !m.started {
		m.timeMark = NowMSEx()
		m.started = true
	}
	now := NowMSEx()
	delta := uint32(now - m.timeMark)
	m.timeMark = now
	m.mu.Unlock()

	m.tick(delta)
	m.tickComplete()
}

// tick subtracts msec from the active list's head only, firing and
// removing every counter whose remaining value reaches zero, exactly as
// TimerManager::tick in the original source.
func (m *TimerManager) tick(msec uint32) {
	m.mu.Lock()
	m.inTick = true
	m.mu.Unlock()

	var fired []*Counter

	m.mu.Lock()
	for msec > 0 {
		head := m.active.first()
		if head == nil {
			break
		}
		if msec <= head.remaining {
			head.remaining -= msec
			msec = 0
		} else {
			msec -= head.remaining
			head.remaining = 0
		}

		for {
			head = m.active.first()
			if head == nil || head.remaining != 0 {
				break
			}
			m.active.remove(head)
			fired = append(fired, head)
		}
	}
	m.mu.Unlock()

	m.fired.Add(uint64(len(fired)))
	for _, c := range fired {
		if c.onExpired != nil {
			c.onExpired()
		}
	}
}

// tickComplete splices every counter staged on the pending list into the
// still-live active list, in delta order, and clears the in-tick flag.
// Counters that survived tick() without reaching zero stay exactly where
// they are on the active list; nothing attached mid-tick is allowed to
// displace them or cause their remaining delta to be silently dropped.
func (m *TimerManager) tickComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for c := m.pending.first(); c != nil; c = m.pending.first() {
		m.pending.remove(c)
		m.addToActiveList(c)
	}
	m.inTick = false
}
