package kit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutex_RecursiveLockFromSameGoroutine(t *testing.T) {
	m := NewMutex()
	m.Lock()
	m.Lock() // must not deadlock
	assert.True(t, m.IsLockedByCurrent())
	m.Unlock()
	assert.True(t, m.IsLockedByCurrent(), "still held at depth 1")
	m.Unlock()
	assert.False(t, m.IsLockedByCurrent())
}

func TestMutex_BlocksOtherGoroutine(t *testing.T) {
	m := NewMutex()
	m.Lock()

	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
		m.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second goroutine acquired lock while held")
	case <-time.After(20 * time.Millisecond):
	}

	m.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second goroutine never acquired released lock")
	}
}

func TestMutex_TryLock(t *testing.T) {
	m := NewMutex()
	require.True(t, m.TryLock())
	require.True(t, m.TryLock(), "recursive TryLock from owner")
	m.Unlock()
	m.Unlock()

	done := make(chan bool, 1)
	m.Lock()
	go func() { done <- m.TryLock() }()
	assert.False(t, <-done)
	m.Unlock()
}

func TestMutex_UnlockByNonOwnerIsFatal(t *testing.T) {
	var caught *FatalError
	SetFatalHandler(func(e *FatalError) { caught = e })
	defer SetFatalHandler(nil)

	m := NewMutex()
	m.Lock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Unlock()
	}()
	wg.Wait()

	require.NotNil(t, caught)
	assert.Equal(t, "Mutex.Unlock", caught.Op)
}

func TestScopeLock(t *testing.T) {
	m := NewMutex()
	func() {
		defer ScopeLock(m)()
		assert.True(t, m.IsLockedByCurrent())
	}()
	assert.False(t, m.IsLockedByCurrent())
}
