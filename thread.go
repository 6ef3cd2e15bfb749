package kit

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/kitcore/kit/internal/goid"
)

// Runnable is the body of a Thread (§9's IRunnable::entry() mapped to a
// single-method interface rather than a bare closure, so Runnables can
// carry their own state/name without an extra allocation per Thread).
type Runnable interface {
	Entry()
}

// RunnableFunc adapts a plain function to Runnable.
type RunnableFunc func()

func (f RunnableFunc) Entry() { f() }

// backend abstracts the platform-specific mechanics of starting a Thread's
// goroutine/execution context (§9: "Per-class platform mixin... collapses
// into a trait / capability set implemented by a backend-selected concrete
// type; dispatch is static at build time"). Go has no compile-time backend
// selection mechanism equivalent to the original's subclassing, so
// selection here is a package-level variable set once at init, which keeps
// dispatch effectively static for the life of the process.
type backend interface {
	// start launches t's trampoline. It must arrange for launchRunnable(t)
	// to run on the new execution context and must not block the caller
	// (except the bareMetalBackend, which runs synchronously because there
	// is, by definition, only ever one Thread).
	start(t *Thread) error
}

var activeBackend backend = goroutineBackend{}

// SetBackend overrides the process-wide Thread backend. This exists
// primarily to exercise the bare-metal single-thread rule (§8 scenario 6)
// deterministically in tests; production code should leave the default
// goroutine backend in place.
func SetBackend(b backend) {
	if b == nil {
		b = goroutineBackend{}
	}
	activeBackend = b
}

// Thread is one schedulable unit of execution: a Runnable plus the
// machinery needed to create, signal, and tear it down (§4.6).
type Thread struct {
	name     string
	runnable Runnable
	priority int
	stackSz  int
	simTick  bool

	// sync is the "thread semaphore" used by Thread.Wait/Signal, distinct
	// from any semaphore the Runnable itself creates (§3, "Sync
	// semaphore").
	sync *Semaphore

	goroutineID int64 // valid once the trampoline has started
	done        chan struct{}
	stopRequest chan struct{}

	registryID uint64
}

var threadIDGen idGenerator

// Create constructs and starts a new Thread running r. On the default
// (goroutine) backend this always succeeds; on the bare-metal backend, a
// second call is a fatal error (§4.6, §8 scenario 6) and Create routes it
// through Fatal rather than returning, per §7's "Fatal programmer error"
// taxonomy. Use TryCreate in tests that need to observe that condition
// without crashing.
func Create(r Runnable, name string, opts ...ThreadOption) *Thread {
	t, err := TryCreate(r, name, opts...)
	if err != nil {
		Fatal("Thread.Create", err)
		return nil
	}
	return t
}

// TryCreate is the non-fatal form of Create, used by tests exercising the
// bare-metal single-Thread limit (§8 scenario 6).
func TryCreate(r Runnable, name string, opts ...ThreadOption) (*Thread, error) {
	if r == nil {
		return nil, errors.New("kit: Thread runnable must not be nil")
	}
	cfg := resolveThreadOptions(opts)

	t := &Thread{
		name:        name,
		runnable:    r,
		priority:    cfg.priority,
		stackSz:     cfg.stackSize,
		simTick:     cfg.allowSimTicks,
		sync:        NewSemaphore(0),
		done:        make(chan struct{}),
		stopRequest: make(chan struct{}),
	}

	if err := activeBackend.start(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Destroy asks the thread to stop (closing t's stopRequest channel, which a
// cooperative Runnable should select on), waits up to graceMS for entry()
// to return, then reclaims the Thread's resources. A still-active thread
// past the grace period is only ever force-reclaimed, never killed
// out-of-band: Go provides no safe mechanism to preempt a goroutine, so
// "abort only as a last resort" (§4.6) here means logging and returning
// rather than corrupting the registry.
func Destroy(t *Thread, graceMS uint32) {
	if t == nil {
		return
	}
	close(t.stopRequest)
	select {
	case <-t.done:
	case <-time.After(time.Duration(graceMS) * time.Millisecond):
		currentLogger().Warn("thread did not stop within grace period",
			F("thread", t.name), F("grace_ms", graceMS))
	}
}

// StopRequested reports whether Destroy has been called for the current
// thread; cooperative Runnables should poll this (or select on
// StopChannel) between units of work.
func (t *Thread) StopRequested() bool {
	select {
	case <-t.stopRequest:
		return true
	default:
		return false
	}
}

// StopChannel returns the channel closed by Destroy, for use in a select
// alongside other blocking operations inside entry().
func (t *Thread) StopChannel() <-chan struct{} {
	return t.stopRequest
}

// Name returns the thread's name.
func (t *Thread) Name() string { return t.name }

// Priority returns the thread's priority hint.
func (t *Thread) Priority() int { return t.priority }

// StackSize returns the thread's stack-size hint (informational only on
// the goroutine backend).
func (t *Thread) StackSize() int { return t.stackSz }

// --- Signalable / Thread sync semaphore (§4.5, §4.6) ---

// Signal posts another thread's sync semaphore, waking it if it is
// blocked in Wait/TimedWait.
func (t *Thread) Signal() error { return t.sync.Signal() }

// SuSignal is Signal's ISR-safe form (§4.4): identical on the goroutine
// backend, where there is no real ISR context, but kept as a distinct
// method so code written against the contract ports unchanged to a
// bare-metal backend.
func (t *Thread) SuSignal() error { return t.sync.SuSignal() }

// Wait blocks the *calling* goroutine until its own Thread's sync
// semaphore is signaled. It is a fatal error to call Wait from a goroutine
// that is not a registered Thread.
func Wait() {
	GetCurrent().sync.Wait()
}

// TryWait is the non-blocking form of Wait.
func TryWait() bool {
	return GetCurrent().sync.TryWait()
}

// TimedWait blocks the calling thread's sync semaphore for at most
// timeoutMS.
func TimedWait(timeoutMS uint32) bool {
	return GetCurrent().sync.TimedWait(timeoutMS)
}

// --- registration / lookup (§4.6, §9's TLS-pointer mapping) ---

// launchRunnable is the common trampoline body every backend calls once
// its execution context is live: register, run, deregister, recovering and
// routing any escaping panic through Fatal (§7: "User code that panics out
// of a Runnable is a fatal condition for that thread").
func launchRunnable(t *Thread) {
	t.goroutineID = goid.Get()
	if t.simTick {
		simThreadsActive.Add(1)
		globalSimTick.registerParticipant(t)
		defer func() {
			globalSimTick.unregisterParticipant(t)
			simThreadsActive.Add(-1)
		}()
	}

	t.registryID = threadRegistry.register(t)
	defer threadRegistry.unregister(t.registryID)
	defer close(t.done)

	defer func() {
		if r := recover(); r != nil {
			Fatal("Thread.entry", &PanicError{Value: r, Stack: capturedStack()})
		}
	}()

	t.runnable.Entry()
}

func capturedStack() []byte {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return buf[:n]
}

// TryGetCurrent returns the Thread bound to the calling goroutine, or nil
// if the calling goroutine was not launched via Create (and is not the
// adopted main thread; see AdoptCurrentThread).
func TryGetCurrent() *Thread {
	return threadRegistry.lookup(goid.Get())
}

// GetCurrent is TryGetCurrent, routed through Fatal if no Thread is
// registered for the calling goroutine.
func GetCurrent() *Thread {
	t := TryGetCurrent()
	if t == nil {
		Fatal("Thread.GetCurrent", errors.New("calling goroutine is not a registered kit.Thread"))
		return nil
	}
	return t
}

// isCurrentGoroutineSimThread reports whether the calling goroutine's
// Thread opted into simulated time.
func isCurrentGoroutineSimThread() bool {
	t := TryGetCurrent()
	return t != nil && t.simTick
}

// TraverseResult is returned by a Traverse visitor to control iteration.
type TraverseResult int

const (
	TraverseContinue TraverseResult = iota
	TraverseAbort
)

// Traverse iterates the active-thread registry in an unspecified order,
// calling visit(t) for each live Thread until it returns TraverseAbort or
// the registry is exhausted (§4.6).
func Traverse(visit func(t *Thread) TraverseResult) {
	threadRegistry.traverse(visit)
}

// AdoptCurrentThread registers the calling goroutine as the "main" Thread,
// so TryGetCurrent works for it without going through Create. The SYSTEM
// startup hook installed by this package calls this automatically during
// Initialize (§4.6: "the main/native thread is adopted into the registry
// by a SYSTEM startup hook").
func AdoptCurrentThread(name string) *Thread {
	t := &Thread{
		name:        name,
		runnable:    RunnableFunc(func() {}),
		sync:        NewSemaphore(0),
		done:        make(chan struct{}),
		stopRequest: make(chan struct{}),
		goroutineID: goid.Get(),
	}
	t.registryID = threadRegistry.register(t)
	return t
}

// --- goroutine backend (default, hosted) ---

type goroutineBackend struct{}

func (goroutineBackend) start(t *Thread) error {
	go func() {
		if t.priority != 0 {
			// Setpriority targets an OS thread id; without pinning, the
			// Go scheduler is free to migrate this goroutine onto a
			// different OS thread afterwards, silently undoing the
			// niceness change. Locking keeps the hint meaningful for the
			// Runnable's whole lifetime at the cost of one dedicated OS
			// thread.
			runtime.LockOSThread()
			applyThreadPriority(t.priority)
		}
		launchRunnable(t)
	}()
	return nil
}

// --- bare-metal backend (§5, §8 scenario 6) ---

// bareMetalBackend permits at most one live Thread, matching the
// single-superloop scheduling model described in §5 for bare-metal targets.
// It runs the Runnable's trampoline synchronously on the calling goroutine,
// since on real bare-metal hardware there is, by construction, no second
// execution context to schedule onto.
type bareMetalBackend struct {
	created bool
}

func NewBareMetalBackend() *bareMetalBackend {
	return &bareMetalBackend{}
}

func (b *bareMetalBackend) start(t *Thread) error {
	if b.created {
		return fmt.Errorf("%w", ErrThreadBareMetalLimit)
	}
	b.created = true
	launchRunnable(t)
	return nil
}
