package kit

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Sentinel errors for expected, non-fatal conditions. None of these are
// routed through the fatal handler: callers are expected to check for them.
var (
	// ErrEventLoopAlreadyRunning is returned by EventLoop.Run when the loop
	// is already executing.
	ErrEventLoopAlreadyRunning = errors.New("kit: event loop is already running")

	// ErrThreadBareMetalLimit is the error passed to the fatal handler (and
	// also returned by the non-fatal Thread.TryCreate variant used in
	// tests) when a second Thread is created on the single-thread backend.
	ErrThreadBareMetalLimit = errors.New("kit: bare-metal backend supports at most one Thread")

	// ErrSemaphoreClosed is returned by Semaphore operations after Close.
	ErrSemaphoreClosed = errors.New("kit: semaphore is closed")

	// ErrStartupAlreadyDraining is the error a hook registration made while
	// notifyStartupClients is draining fails with; RegisterStartupHook
	// passes it to the fatal handler.
	ErrStartupAlreadyDraining = errors.New("kit: startup hooks are already draining")

	// ErrSimTickNoParticipants names the condition in which no thread has
	// opted into simulated time. SimTick.Advance reports that condition by
	// returning false; no function in this package returns this value.
	ErrSimTickNoParticipants = errors.New("kit: no sim-tick participants")
)

// FatalError is passed to the process-wide fatal handler (see
// SetFatalHandler) when the core detects a broken precondition: a nil
// Runnable, a zero EventLoop timeout, a second Thread on a backend that
// permits only one, and similar programmer errors. These are never
// returned as ordinary errors because callers are not expected to recover
// from them; §7 of the design calls these "fatal programmer errors."
type FatalError struct {
	// Op names the operation that detected the violation, e.g.
	// "Thread.Create" or "EventLoop.New".
	Op string

	// Err is the underlying cause.
	Err error

	// File and Line identify the call site, captured via runtime.Caller at
	// the point Assert/Fatal was invoked.
	File string
	Line int
}

func (e *FatalError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("kit: fatal: %s: %v (%s:%d)", e.Op, e.Err, e.File, e.Line)
	}
	return fmt.Sprintf("kit: fatal: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause, for use with errors.Is/errors.As.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// FatalHandler is invoked by Assert and Fatal when a programmer error is
// detected. The default handler logs the error via the current Logger and
// then panics; tests that need to observe a fatal condition without
// crashing the test binary should install their own handler with
// SetFatalHandler.
type FatalHandler func(e *FatalError)

var fatalHandler struct {
	sync.RWMutex
	fn FatalHandler
}

func init() {
	fatalHandler.fn = defaultFatalHandler
}

// SetFatalHandler installs the process-wide fatal-error handler. A nil
// handler restores the default (log then panic).
func SetFatalHandler(h FatalHandler) {
	fatalHandler.Lock()
	defer fatalHandler.Unlock()
	if h == nil {
		h = defaultFatalHandler
	}
	fatalHandler.fn = h
}

func getFatalHandler() FatalHandler {
	fatalHandler.RLock()
	defer fatalHandler.RUnlock()
	return fatalHandler.fn
}

func defaultFatalHandler(e *FatalError) {
	currentLogger().Error(e.Error())
	panic(e)
}

// fatalCallDepth is how many frames Assert/Fatal sit below the caller
// whose line number should be reported.
const fatalCallDepth = 2

// Assert routes to the fatal handler when cond is false. It is the Go
// realization of the HAL's kit_assert(cond, file, line, func) contact
// point named in §6: a function rather than a macro, since Go has no
// preprocessor, but a function that can still be compiled out is not
// idiomatic Go, so Assert is always live (callers needing a debug-only
// check should gate the call site instead).
func Assert(cond bool, op string) {
	if cond {
		return
	}
	_, file, line, _ := runtime.Caller(fatalCallDepth - 1)
	getFatalHandler()(&FatalError{Op: op, Err: errors.New("assertion failed"), File: file, Line: line})
}

// Fatal routes err to the fatal handler, annotated with op and the caller's
// file/line.
func Fatal(op string, err error) {
	_, file, line, _ := runtime.Caller(fatalCallDepth - 1)
	getFatalHandler()(&FatalError{Op: op, Err: err, File: file, Line: line})
}

// PanicError wraps a value recovered from a panic that escaped a
// Runnable's entry() method. Per §7, "User code that panics out of a
// Runnable is a fatal condition for that thread" — Thread's trampoline
// recovers exactly once, wraps the panic in a PanicError, and routes it
// through Fatal rather than letting it silently unwind the goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("kit: runnable panicked: %v", e.Value)
}

// Unwrap returns the underlying cause if the recovered value was itself an
// error, enabling errors.Is/errors.As through the panic boundary.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// idGenerator is a small shared monotonic id source; EventLoop draws its
// ID from one for debug/log correlation (not for ordering
// semantics, which are governed by the delta list / registration order
// described in the design).
type idGenerator struct {
	next atomic.Uint64
}

func (g *idGenerator) nextID() uint64 {
	return g.next.Add(1)
}
