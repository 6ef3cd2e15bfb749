// Package goid recovers the runtime-assigned id of the calling goroutine.
//
// Kit's OSAL models one Thread per live goroutine and needs a thread-local
// pointer analog ("current Thread") that any function can query without an
// explicit context argument. Go exposes no public API for this, so we parse
// it out of the goroutine header line in a runtime.Stack dump, the same
// trick used by most goroutine-id packages in the ecosystem.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var stackBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

// Get returns the id of the calling goroutine.
//
// This is relatively slow (it captures and parses a stack trace) and is
// intended for use at Thread registration/lookup boundaries only, never on
// a hot path such as Semaphore.signal.
func Get() int64 {
	buf := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(buf)

	n := runtime.Stack(*buf, false)
	for n == len(*buf) {
		// The header always lands within the first line, but grow and
		// retry anyway rather than risk a truncated read if a future
		// runtime version widens the dump before the first newline.
		*buf = make([]byte, len(*buf)*2)
		n = runtime.Stack(*buf, false)
	}

	id, ok := parseHeader((*buf)[:n])
	if !ok {
		// Should be unreachable: the runtime always emits "goroutine N [...".
		panic("goid: could not parse goroutine id from stack header")
	}
	return id
}

// parseHeader extracts N from a header line of the form "goroutine N [running]:".
func parseHeader(b []byte) (int64, bool) {
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0, false
	}
	b = b[len(prefix):]
	sp := bytes.IndexByte(b, ' ')
	if sp < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(string(b[:sp]), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
