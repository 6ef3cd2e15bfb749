package kit

import (
	"sync"

	"github.com/kitcore/kit/internal/goid"
)

// Mutex is a recursive (re-entrant) lock (§4.3): the owning goroutine may
// lock it repeatedly without deadlocking itself, and must unlock it the
// same number of times before another goroutine can acquire it. Go's
// sync.Mutex is intentionally non-recursive, so Mutex tracks ownership by
// goroutine id (internal/goid) and a depth counter guarded by a plain
// sync.Mutex protecting that bookkeeping, plus a sync.Cond for the
// non-owner blocking path.
type Mutex struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64 // 0 means unowned; goroutine ids from internal/goid are never 0
	depth int
}

// NewMutex constructs a ready-to-use recursive Mutex.
func NewMutex() *Mutex {
	m := &Mutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the mutex, blocking only if another goroutine currently
// holds it. Safe to call repeatedly from the same goroutine (§4.3).
func (m *Mutex) Lock() {
	id := goid.Get()
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.owner != 0 && m.owner != id {
		m.cond.Wait()
	}
	m.owner = id
	m.depth++
}

// TryLock is the non-blocking form of Lock.
func (m *Mutex) TryLock() bool {
	id := goid.Get()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != 0 && m.owner != id {
		return false
	}
	m.owner = id
	m.depth++
	return true
}

// Unlock releases one level of ownership. It is a fatal error to call
// Unlock from a goroutine that does not currently hold the lock, or to
// unbalance Lock/Unlock calls (§4.3).
func (m *Mutex) Unlock() {
	id := goid.Get()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != id {
		m.mu.Unlock()
		Fatal("Mutex.Unlock", errOrNotHeldBy(id, m.owner))
		m.mu.Lock()
		return
	}
	m.depth--
	if m.depth == 0 {
		m.owner = 0
		m.cond.Signal()
	}
}

// IsLockedByCurrent reports whether the calling goroutine currently holds
// the mutex at any depth; useful for Assert-style precondition checks.
func (m *Mutex) IsLockedByCurrent() bool {
	id := goid.Get()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner == id
}

func errOrNotHeldBy(caller, owner int64) error {
	return &mutexOwnershipError{caller: caller, owner: owner}
}

type mutexOwnershipError struct {
	caller int64
	owner  int64
}

func (e *mutexOwnershipError) Error() string {
	if e.owner == 0 {
		return "kit: Mutex.Unlock called while not locked"
	}
	return "kit: Mutex.Unlock called by a goroutine that is not the owner"
}

// ScopeLock locks m and returns a function that unlocks it, for use with
// defer: defer ScopeLock(m)(). This mirrors the RAII scope-guard idiom named
// in §9 as having no direct Go equivalent beyond defer.
func ScopeLock(m *Mutex) func() {
	m.Lock()
	return m.Unlock
}
