package kit

// Watchdog is the external collaborator an EventLoop drives through three
// hook points, in this order relative to the rest of a wake (§4.12):
// StartWatcher at loop start, MonitorWdog once per wake (fired LAST, after
// timer processing, per the "monitor after the work it is meant to detect
// stalls in" contract used by the original's watchdog test double), and
// StopWatcher at loop end. The loop never inspects the watchdog's internal
// state; it only promises to call these at the documented points. A nil
// Watchdog (the default) means the hooks are simply skipped.
type Watchdog interface {
	// StartWatcher is called once, from entry(), before the first wake.
	// self identifies the loop instance for logging/diagnostics.
	StartWatcher(self *EventLoop)

	// StopWatcher is called once, from entry(), after the final wake.
	StopWatcher()

	// MonitorWdog is called once per completed wake, after event
	// dispatch and timer processing, so it observes a loop that is
	// still alive rather than one that has stalled before ever
	// reaching this point.
	MonitorWdog()
}

// NopWatchdog is a Watchdog whose hooks do nothing; useful as an explicit
// "no watchdog" value when a caller wants to be clear about intent rather
// than relying on a nil WithWatchdog.
type NopWatchdog struct{}

func (NopWatchdog) StartWatcher(*EventLoop) {}
func (NopWatchdog) StopWatcher()            {}
func (NopWatchdog) MonitorWdog()            {}
