package kit

// This file follows the teacher's functional-options shape (loopOptions +
// LoopOption interface + private impl + resolve*Options reducer), widened
// to cover every constructor in the core that takes optional configuration.

// EventLoopOption configures an EventLoop at construction time.
type EventLoopOption interface {
	applyEventLoop(*eventLoopOptions)
}

type eventLoopOptions struct {
	timeoutMS  uint32
	eventFlags *EventFlagSet
	watchdog   Watchdog
	logger     Logger
}

type eventLoopOptionFunc func(*eventLoopOptions)

func (f eventLoopOptionFunc) applyEventLoop(o *eventLoopOptions) { f(o) }

// WithTimeout sets the EventLoop's wait timeout, i.e. the resolution of its
// software timers (§4.10). The default is 1 ms, matching
// OPTION_KIT_SYSTEM_EVENT_LOOP_TIMEOUT_PERIOD in the original source.
func WithTimeout(timeoutMS uint32) EventLoopOption {
	return eventLoopOptionFunc(func(o *eventLoopOptions) { o.timeoutMS = timeoutMS })
}

// WithEventFlags attaches a set of event-flag consumers to the loop. The
// set may not be modified after the EventLoop is constructed (§4.10).
func WithEventFlags(flags *EventFlagSet) EventLoopOption {
	return eventLoopOptionFunc(func(o *eventLoopOptions) { o.eventFlags = flags })
}

// WithWatchdog attaches a watchdog collaborator (§4.12). Absence of a
// watchdog (the default, nil) is legal: the loop simply skips the hooks.
func WithWatchdog(w Watchdog) EventLoopOption {
	return eventLoopOptionFunc(func(o *eventLoopOptions) { o.watchdog = w })
}

// WithEventLoopLogger overrides the Logger used by this one EventLoop
// instance, instead of the process-wide default (see SetLogger).
func WithEventLoopLogger(l Logger) EventLoopOption {
	return eventLoopOptionFunc(func(o *eventLoopOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

func resolveEventLoopOptions(opts []EventLoopOption) *eventLoopOptions {
	cfg := &eventLoopOptions{
		timeoutMS: defaultEventLoopTimeoutMS,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyEventLoop(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = currentLogger()
	}
	return cfg
}

// ThreadOption configures a Thread at creation time.
type ThreadOption interface {
	applyThread(*threadOptions)
}

type threadOptions struct {
	priority      int
	stackSize     int
	allowSimTicks bool
}

type threadOptionFunc func(*threadOptions)

func (f threadOptionFunc) applyThread(o *threadOptions) { f(o) }

// WithPriority sets the Thread's priority hint (§4.6). Priorities are a
// hint: the goroutine backend maps them into a POSIX-style niceness range
// where the host platform supports it (see threadpriority_*.go) and ignores
// them elsewhere.
func WithPriority(priority int) ThreadOption {
	return threadOptionFunc(func(o *threadOptions) { o.priority = priority })
}

// WithStackSize sets a stack-size hint. The goroutine backend cannot
// pre-size a goroutine's stack (Go grows it automatically), so this is
// recorded for parity with the cross-platform contract and surfaced via
// Thread.StackSize, but has no effect on the hosted backend.
func WithStackSize(bytes int) ThreadOption {
	return threadOptionFunc(func(o *threadOptions) { o.stackSize = bytes })
}

// WithSimTicks opts the new Thread into the simulated-tick protocol (§4.7).
func WithSimTicks() ThreadOption {
	return threadOptionFunc(func(o *threadOptions) { o.allowSimTicks = true })
}

func resolveThreadOptions(opts []ThreadOption) *threadOptions {
	cfg := &threadOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyThread(cfg)
	}
	return cfg
}
