package kit

import (
	"sync/atomic"
	"time"
)

// Clock provides a monotonic, millisecond-resolution time source with 32-
// and 64-bit views that are always synchronized (§4.1): NowMSEx's low 32
// bits always equal NowMS's return value, because NowMS is derived from the
// 64-bit accumulator rather than maintained as an independent counter —
// this mirrors ElapsedTimeEx.cpp in the original source, which keeps one
// 64-bit accumulator and derives the 32-bit view via a mask instead of
// risking the two views drifting apart.
//
// On a goroutine that has opted into simulated time (see SimTick), NowMS*
// return virtual time instead of wall-clock time; the *RealTime variants
// always bypass SimTick.
var processClock = newClock()

type clock struct {
	origin time.Time
}

func newClock() *clock {
	return &clock{origin: time.Now()}
}

func (c *clock) realNowMSEx() uint64 {
	return uint64(time.Since(c.origin).Milliseconds())
}

// NowMS returns the current monotonic-or-simulated time in milliseconds,
// wrapping at 2^32 (§4.1).
func NowMS() uint32 {
	return uint32(NowMSEx())
}

// NowMSEx is the 64-bit extended view of NowMS; the two are always
// synchronized on their low 32 bits.
func NowMSEx() uint64 {
	if simThreadsActive.Load() > 0 && isCurrentGoroutineSimThread() {
		return globalSimTick.virtualNowMSEx()
	}
	return processClock.realNowMSEx()
}

// NowMSRealTime bypasses the simulated-tick source even on a goroutine that
// has opted into simulated time (§4.1's "real time" variants).
func NowMSRealTime() uint32 {
	return uint32(NowMSExRealTime())
}

// NowMSExRealTime is the 64-bit, sim-tick-bypassing view of NowMSRealTime.
func NowMSExRealTime() uint64 {
	return processClock.realNowMSEx()
}

// DeltaMS returns end-start using unsigned wrap arithmetic, correctly
// measuring an interval across a single 32-bit rollover as long as the true
// interval is < 2^31 ms. end defaults to NowMS() when called with one
// argument via DeltaMSSince.
func DeltaMS(start, end uint32) uint32 {
	return end - start
}

// DeltaMSSince is DeltaMS(start, NowMS()).
func DeltaMSSince(start uint32) uint32 {
	return DeltaMS(start, NowMS())
}

// ExpiredMS reports whether duration ms have elapsed since mark, i.e.
// DeltaMSSince(mark) >= duration.
func ExpiredMS(mark, duration uint32) bool {
	return DeltaMSSince(mark) >= duration
}

// ExpiredMSEx is the 64-bit variant of ExpiredMS with an explicit now, so
// interval arithmetic never wraps within any realistic run length.
func ExpiredMSEx(mark uint64, duration uint32, now uint64) bool {
	return now-mark >= uint64(duration)
}

// simThreadsActive is a fast, lock-free count of goroutines currently
// participating in simulated time, letting NowMS's hot path skip the
// thread-registry lookup entirely when SimTick is unused (the overwhelming
// common case in production builds).
var simThreadsActive atomic.Int64
