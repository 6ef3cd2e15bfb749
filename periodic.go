package kit

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// PeriodicCallback is invoked when an interval elapses. now is the current
// time (ms), marker is the interval's newly-advanced boundary, and ctx is
// whatever opaque value the caller registered the interval with.
type PeriodicCallback func(now uint64, marker uint64, ctx any)

// interval is one entry driven by a PeriodicScheduler (§4.11).
type interval struct {
	durationMS uint32
	callback   PeriodicCallback
	ctx        any
	marker     uint64
	started    bool
}

// SlippageReporter is notified when an interval falls behind badly enough
// that the scheduler must drop backlog and resync rather than stack missed
// invocations (§4.11). reportRate-limits its own noise via
// PeriodicScheduler's internal catrate.Limiter, so a persistently
// overloaded interval logs at a bounded rate instead of once per call.
type SlippageReporter func(intervalIndex int, now, oldMarker, newMarker uint64)

// PeriodicScheduler drives N independent intervals with distinct callbacks
// from within an EventLoop's own goroutine (§4.11). It is typically called
// once per EventLoop wake, e.g. from a Notified implementation or a
// dedicated timer Counter.
type PeriodicScheduler struct {
	intervals []*interval
	reporter  SlippageReporter

	// slippageLimiter rate-limits how often the reporter actually fires
	// per interval, so a pathologically overloaded interval doesn't
	// flood the log every single scheduler call.
	slippageLimiter *catrate.Limiter

	// slippageCount tallies every resync, independent of whether a
	// reporter is installed or rate-limited, so SlippageCount reflects
	// actual overload events rather than how often they were logged.
	slippageCount atomic.Uint64
}

// SlippageCount returns the total number of times any interval has had to
// drop backlog and resync its marker, for diagnostics.
func (s *PeriodicScheduler) SlippageCount() uint64 {
	return s.slippageCount.Load()
}

// PeriodicSchedulerOption configures a PeriodicScheduler at construction.
type PeriodicSchedulerOption func(*PeriodicScheduler)

// WithSlippageReporter installs a reporter called when an interval must
// drop backlog (§4.11). Reports for the same interval are limited to once
// per second via the scheduler's internal rate limiter.
func WithSlippageReporter(r SlippageReporter) PeriodicSchedulerOption {
	return func(s *PeriodicScheduler) { s.reporter = r }
}

// NewPeriodicScheduler builds a scheduler with no registered intervals.
func NewPeriodicScheduler(opts ...PeriodicSchedulerOption) *PeriodicScheduler {
	s := &PeriodicScheduler{
		slippageLimiter: catrate.NewLimiter(map[time.Duration]int{time.Second: 1}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddInterval registers a new interval and returns its index, used to
// identify it in SlippageReporter calls.
func (s *PeriodicScheduler) AddInterval(durationMS uint32, callback PeriodicCallback, ctx any) int {
	s.intervals = append(s.intervals, &interval{
		durationMS: durationMS,
		callback:   callback,
		ctx:        ctx,
	})
	return len(s.intervals) - 1
}

// Run evaluates every registered interval against the current time (§4.11).
// On an interval's first Run, its marker is rounded down to the nearest
// interval boundary relative to now rather than firing immediately, so
// staggered AddInterval calls don't all fire on the scheduler's very first
// invocation.
func (s *PeriodicScheduler) Run(nowMS uint64) {
	for idx, iv := range s.intervals {
		if iv.durationMS == 0 {
			continue
		}
		if !iv.started {
			iv.marker = nowMS - nowMS%uint64(iv.durationMS)
			iv.started = true
		}

		if nowMS-iv.marker < uint64(iv.durationMS) {
			continue
		}

		iv.marker += uint64(iv.durationMS)
		if iv.callback != nil {
			iv.callback(nowMS, iv.marker, iv.ctx)
		}

		if nowMS-iv.marker >= uint64(iv.durationMS) {
			oldMarker := iv.marker
			// Resync to the most recent boundary, dropping any
			// backlog rather than stacking missed invocations
			// (§4.11's overload-bounding rationale).
			iv.marker = nowMS - nowMS%uint64(iv.durationMS)
			s.slippageCount.Add(1)
			s.reportSlippage(idx, nowMS, oldMarker, iv.marker)
		}
	}
}

func (s *PeriodicScheduler) reportSlippage(idx int, now, oldMarker, newMarker uint64) {
	if s.reporter == nil {
		return
	}
	if _, ok := s.slippageLimiter.Allow(idx); !ok {
		return
	}
	s.reporter(idx, now, oldMarker, newMarker)
}
