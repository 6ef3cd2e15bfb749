package kit

import (
	"errors"
	"sync/atomic"
)

// defaultEventLoopTimeoutMS is the loop's default wait timeout / timer
// resolution, matching OPTION_KIT_SYSTEM_EVENT_LOOP_TIMEOUT_PERIOD in the
// original source.
const defaultEventLoopTimeoutMS = 1

// EventLoop is a single cooperative dispatcher combining a software timer
// list, a bitmask event-flag fan-out, and an optional watchdog hook, driven
// by one owning goroutine (§4.10). It implements Signalable so producers
// can wake it without knowing it is an EventLoop specifically.
type EventLoop struct {
	id uint64

	sema    *Semaphore
	timers  *TimerManager
	flags   *EventFlagSet
	wdog    Watchdog
	logger  Logger
	timeout uint32

	// state is the externally observable lifecycle state (§4.10). It is
	// distinct from runStarted below because PleaseStop may latch
	// StateStopping before Run has ever been called, and Run must still
	// be allowed to proceed exactly once in that case so entry() can
	// observe the latch and stop immediately.
	state      *FastState
	runStarted atomic.Bool

	lastWake uint64
	thread   *Thread

	metrics Metrics
}

var eventLoopIDs idGenerator

// NewEventLoop constructs an EventLoop. A zero/unset timeout defaults to
// defaultEventLoopTimeoutMS; an explicitly-supplied timeout of 0 via
// WithTimeout(0) is a fatal construction error (§4.10: "timeout == 0 at
// construction is rejected").
func NewEventLoop(opts ...EventLoopOption) *EventLoop {
	cfg := resolveEventLoopOptions(opts)
	if cfg.timeoutMS == 0 {
		Fatal("EventLoop.New", errZeroTimeout)
		return nil
	}

	wdog := cfg.watchdog
	if wdog == nil {
		wdog = NopWatchdog{}
	}

	return &EventLoop{
		id:      eventLoopIDs.nextID(),
		sema:    NewSemaphore(0),
		timers:  NewTimerManager(),
		flags:   cfg.eventFlags,
		wdog:    wdog,
		logger:  cfg.logger,
		timeout: cfg.timeoutMS,
		state:   NewFastState(),
	}
}

var errZeroTimeout = errors.New("kit: EventLoop timeout must be nonzero")

// Run starts the loop's entry() on a new Thread and blocks until it is
// actually dispatching (so a caller that immediately calls SignalEvent
// cannot race the loop's own startup). It returns ErrEventLoopAlreadyRunning
// if called more than once.
func (l *EventLoop) Run(name string, opts ...ThreadOption) error {
	if !l.runStarted.CompareAndSwap(false, true) {
		return ErrEventLoopAlreadyRunning
	}
	l.state.TryTransition(StateConstructed, StateRunning)

	started := make(chan struct{})
	l.thread = Create(RunnableFunc(func() {
		l.entry(started)
	}), name, opts...)
	<-started
	return nil
}

// entry is the loop's trampoline body (§4.10): start_loop, then
// wait_and_process_events until it returns false, then stop_loop.
func (l *EventLoop) entry(started chan struct{}) {
	l.startLoop()
	close(started)

	skipWait := false
	for l.waitAndProcessEvents(skipWait) {
		skipWait = false
	}

	l.stopLoop()
}

func (l *EventLoop) startLoop() {
	l.timers.Start()
	l.lastWake = NowMSEx()
	l.wdog.StartWatcher(l)
	l.logger.Info("event loop starting", F("loop_id", l.id))
}

func (l *EventLoop) stopLoop() {
	l.wdog.StopWatcher()
	l.state.Store(StateStopped)
	l.logger.Info("event loop stopped", F("loop_id", l.id))
}

// waitAndProcessEvents implements the ten numbered steps in §4.10.
func (l *EventLoop) waitAndProcessEvents(skipWait bool) bool {
	// 1.
	if state := l.state.Load(); state == StateStopping || state == StateStopped {
		return false
	}

	// 2. Force skipWait if we've fallen far enough behind that waiting
	// again risks starving timers.
	now := NowMSEx()
	if now-l.lastWake > uint64(l.timeout) {
		skipWait = true
	}

	// 3.
	l.lastWake = now

	// 4.
	if !skipWait {
		l.sema.TimedWait(l.timeout)
	}

	// 5.
	if state := l.state.Load(); state == StateStopping || state == StateStopped {
		return false
	}

	// 6-7.
	if l.flags != nil {
		snap := l.flags.snapshotAndClear()
		if snap != 0 {
			l.flags.dispatch(snap)
			l.metrics.EventsDelivered.Add(uint64(popcount32(snap)))
		}
	}

	// 8.
	firedBefore := l.timers.FiredCount()
	l.timers.ProcessTimers()
	l.metrics.TimersFired.Add(l.timers.FiredCount() - firedBefore)

	// 9.
	l.wdog.MonitorWdog()
	l.metrics.WatchdogKicks.Add(1)

	l.metrics.Wakes.Add(1)

	// 10.
	return true
}

// popcount32 counts set bits, used to turn an event-flag snapshot into a
// "how many events were delivered this wake" metric.
func popcount32(x uint32) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

// PleaseStop latches the loop's stop flag and wakes it if it is currently
// blocked in TimedWait, so it observes the flag promptly rather than
// waiting out the rest of its timeout (§4.10). Calling it before Run has
// even been invoked is legal: entry() runs startLoop, then sees the latch
// on its first waitAndProcessEvents check and stops without dispatching
// any events or timers.
func (l *EventLoop) PleaseStop() {
	for {
		switch l.state.Load() {
		case StateConstructed:
			if l.state.TryTransition(StateConstructed, StateStopping) {
				return
			}
		case StateRunning:
			if l.state.TryTransition(StateRunning, StateStopping) {
				l.sema.Signal()
				return
			}
		default:
			// Already Stopping or Stopped: nothing to latch, but wake
			// the loop in case it is blocked so it re-checks promptly.
			l.sema.Signal()
			return
		}
	}
}

// Signal implements Signalable by posting the loop's wakeup semaphore.
func (l *EventLoop) Signal() error { return l.sema.Signal() }

// SuSignal implements Signalable's ISR-safe form.
func (l *EventLoop) SuSignal() error { return l.sema.SuSignal() }

// SignalEvent ORs a single bit (1<<bitIndex) into the pending word and
// wakes the loop (§4.9).
func (l *EventLoop) SignalEvent(bitIndex uint) {
	l.SignalMultipleEvents(1 << bitIndex)
}

// SignalMultipleEvents ORs mask into the pending word and wakes the loop.
func (l *EventLoop) SignalMultipleEvents(mask uint32) {
	if l.flags == nil {
		return
	}
	l.flags.signal(mask)
	l.sema.Signal()
}

// SuSignalEvent is SignalEvent's ISR-safe form: the pending word is updated
// without the global lock (§4.9).
func (l *EventLoop) SuSignalEvent(bitIndex uint) {
	l.SuSignalMultipleEvents(1 << bitIndex)
}

// SuSignalMultipleEvents is SignalMultipleEvents's ISR-safe form.
func (l *EventLoop) SuSignalMultipleEvents(mask uint32) {
	if l.flags == nil {
		return
	}
	l.flags.suSignal(mask)
	l.sema.SuSignal()
}

// State returns the loop's current lifecycle state.
func (l *EventLoop) State() LoopState { return l.state.Load() }

// Timers returns the loop's TimerManager, so callers can Attach/Detach
// counters that fire on this loop's own goroutine.
func (l *EventLoop) Timers() *TimerManager { return l.timers }

// ID returns the loop's diagnostic id, used in log correlation.
func (l *EventLoop) ID() uint64 { return l.id }

// Metrics returns a point-in-time snapshot of the loop's runtime counters.
func (l *EventLoop) Metrics() Snapshot { return l.metrics.Snapshot() }
