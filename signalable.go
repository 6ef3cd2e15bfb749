package kit

// Signalable is implemented by anything that can be posted from both normal
// and ISR/interrupt context (§4.4, §4.5). Semaphore, Thread and EventLoop
// all satisfy it.
type Signalable interface {
	// Signal posts from ordinary (non-interrupt) context. It may block
	// briefly on the GlobalLock on a bare-metal backend; on the hosted
	// backend it never blocks.
	Signal() error

	// SuSignal ("supervisor/ISR signal") posts from interrupt context. On
	// the hosted backend this is identical to Signal: Go has no interrupt
	// context, so the distinction exists purely so code written against
	// the contract ports unchanged to a bare-metal backend where SuSignal
	// must not take any lock that ordinary code might be holding when the
	// interrupt fires.
	SuSignal() error
}
