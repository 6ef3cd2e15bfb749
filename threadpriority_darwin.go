//go:build darwin

package kit

import "golang.org/x/sys/unix"

// applyThreadPriority maps a Thread's priority hint onto BSD niceness
// (§4.6's Posix backend mapping). setpriority with PRIO_PROCESS and who 0
// targets the whole calling process, not one OS thread, so the hint
// changes the niceness of every thread in the process; that is the closest
// portable approximation available without Cgo access to
// pthread_setschedparam.
func applyThreadPriority(priority int) {
	if priority == 0 {
		return
	}
	if priority < -20 {
		priority = -20
	} else if priority > 19 {
		priority = 19
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, priority); err != nil {
		currentLogger().Debug("could not apply thread priority",
			F("priority", priority), F("error", err.Error()))
	}
}
