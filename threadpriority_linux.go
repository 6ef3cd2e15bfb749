//go:build linux

package kit

import "golang.org/x/sys/unix"

// applyThreadPriority applies a Thread's priority hint as the POSIX
// niceness value of the calling OS thread. The hint is used as the niceness
// directly (clamped, see below); it is not scaled into the scheduler's
// [sched_get_priority_min, sched_get_priority_max] range, and the
// scheduling policy is left unchanged. Go does not expose a per-goroutine OS thread handle directly, so
// this must run on the goroutine itself (via runtime.LockOSThread
// semantics implied by the caller, which is always the freshly started
// Thread goroutine before it invokes the Runnable).
//
// priority is expected in [-20, 19] (standard niceness range); values
// outside that range are clamped.
func applyThreadPriority(priority int) {
	if priority == 0 {
		return
	}
	if priority < -20 {
		priority = -20
	} else if priority > 19 {
		priority = 19
	}
	tid := unix.Gettid()
	// Best-effort: an unprivileged process cannot lower niceness (raise
	// priority) past certain bounds, and that failure is not actionable
	// here, so it is logged rather than treated as fatal.
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, priority); err != nil {
		currentLogger().Debug("could not apply thread priority",
			F("priority", priority), F("error", err.Error()))
	}
}
