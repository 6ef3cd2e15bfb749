package kit

import "sync/atomic"

// Metrics tracks low-overhead runtime counters for a single EventLoop,
// trimmed down from the teacher's percentile/TPS machinery (metrics.go) to
// the handful of counters actually useful for an embedded-facing OSAL:
// wake count, timers fired, events dispatched, and watchdog kicks. All
// fields are updated with plain atomics rather than a mutex, since they are
// incremented from the loop's own goroutine on every wake and read
// concurrently from diagnostics code.
type Metrics struct {
	Wakes           atomic.Uint64
	TimersFired     atomic.Uint64
	EventsDelivered atomic.Uint64
	WatchdogKicks   atomic.Uint64
}

// Snapshot is a point-in-time copy of Metrics, safe to log or export.
type Snapshot struct {
	Wakes           uint64
	TimersFired     uint64
	EventsDelivered uint64
	WatchdogKicks   uint64
}

// Snapshot reads every counter into a plain struct.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Wakes:           m.Wakes.Load(),
		TimersFired:     m.TimersFired.Load(),
		EventsDelivered: m.EventsDelivered.Load(),
		WatchdogKicks:   m.WatchdogKicks.Load(),
	}
}
