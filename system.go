package kit

import "sync"

// mainThread is the Thread adopted for the goroutine that calls
// Initialize, registered via a SYSTEM-level startup hook so TryGetCurrent
// works from the application's entry point without an explicit Create
// (§3: "the main/native thread is adopted into the registry by a SYSTEM
// startup hook").
var mainThread struct {
	sync.Once
	t *Thread
}

func init() {
	RegisterStartupHook(StartupLevelSystem, func() {
		mainThread.Do(func() {
			mainThread.t = AdoptCurrentThread("main")
		})
	})
}

var systemInitialized sync.Once

// Initialize drains the startup-hook lists in level order (TEST_INFRA ->
// SYSTEM -> MIDDLEWARE -> APPLICATION), per §6's
// "Kit::System::initialize()" entry point. It is idempotent: calling it a
// second time is a no-op, since startup hooks model one-time process
// initialization.
func Initialize() {
	systemInitialized.Do(func() {
		startupRegistry.notifyStartupClients()
	})
}

// Sleep yields the calling goroutine for at least ms milliseconds, in
// simulated time if the caller is a sim thread, real time otherwise (§6).
func Sleep(ms uint32) {
	SimSleep(ms)
}

// schedulingEnabled latches EnableScheduling's one-way transition.
var schedulingEnabled sync.Once

// EnableScheduling hands control to the underlying scheduler where that is
// a meaningful, distinct step (§5: "enabling scheduling is a one-way
// transition that never returns" on RP2-class targets running two threads,
// one per core). On the hosted goroutine backend used here, the Go runtime
// scheduler is already active the moment the process starts, so this call
// exists for API parity and simply blocks forever, matching the "never
// returns" contract rather than silently no-op'ing.
func EnableScheduling() {
	schedulingEnabled.Do(func() {
		select {}
	})
}
