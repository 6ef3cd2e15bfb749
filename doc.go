// Package kit provides a portable operating-system abstraction layer
// (OSAL) plus a small set of systems services built on top of it: a
// monotonic-or-simulated clock, recursive mutexes and counting semaphores, a
// Thread abstraction with an active-thread registry, a software-timer
// manager driven off the clock, and a single-threaded cooperative event loop
// composing timers with bitmask-based event flags and an optional watchdog
// collaborator.
//
// # Architecture
//
// The package is organized bottom-up, mirroring its dependency order:
//
//  1. OSAL primitives ([GlobalLock], [Mutex], [Semaphore], [Signalable]).
//  2. The clock ([NowMS], [NowMSEx]), with a pluggable [SimTick] engine for
//     deterministic tests.
//  3. [Thread], registered in a process-wide, traversable registry.
//  4. [TimerManager], a delta-sorted list of software timers.
//  5. [EventLoop], a [Runnable] composing (1)-(4) with [EventFlagSet] and an
//     optional [Watchdog].
//
// [PeriodicScheduler] drives multiple independent callback intervals from
// inside an event loop tick, dropping backlog rather than queuing it.
//
// # Simulated time
//
// Tests that care about exact timer/event-loop timing should opt threads
// into [SimTick] rather than sleeping in wall-clock time: before each
// simulated millisecond, [SimTick.Advance] waits until every participating
// thread is parked at a cooperation point, making multi-threaded timing
// tests deterministic. After waking the threads for its last tick, Advance
// returns without waiting for them to park again.
//
// # Thread safety
//
// [Semaphore.Signal] and [EventLoop.SignalEvent] are safe to call from any
// goroutine. [EventLoop] internal state (pending event bits, the timer
// list) is only ever mutated from the loop's own goroutine or under the
// global lock ([GlobalLockAcquire]). See the per-type docs for the exact
// contract.
//
// # Error handling
//
// Expected conditions (timeouts, a stopped loop) are returned as sentinel
// errors or booleans. Broken preconditions (nil Runnable, a second Thread on
// a backend that only supports one, a zero EventLoop timeout) are
// programmer errors and are routed through [SetFatalHandler] rather than
// returned.
package kit
