package kit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_SignalThenWait(t *testing.T) {
	s := NewSemaphore(0)
	require.NoError(t, s.Signal())
	assert.True(t, s.TryWait())
	assert.False(t, s.TryWait(), "count should be back to zero")
}

func TestSemaphore_BoundedSignalIsDropped(t *testing.T) {
	s := NewBoundedSemaphore(0, 1)
	require.NoError(t, s.Signal())
	require.NoError(t, s.Signal()) // dropped, already at max
	assert.Equal(t, 1, s.Count())
}

func TestSemaphore_WaitBlocksUntilSignaled(t *testing.T) {
	s := NewSemaphore(0)
	acquired := make(chan struct{})
	go func() {
		s.Wait()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("Wait returned before Signal")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, s.Signal())
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Signal")
	}
}

func TestSemaphore_TimedWaitTimesOut(t *testing.T) {
	s := NewSemaphore(0)
	start := time.Now()
	ok := s.TimedWait(20)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestSemaphore_TimedWaitZeroIsTryWait(t *testing.T) {
	s := NewSemaphore(0)
	assert.False(t, s.TimedWait(0))
	require.NoError(t, s.Signal())
	assert.True(t, s.TimedWait(0))
}

func TestSemaphore_CloseWakesWaiters(t *testing.T) {
	s := NewSemaphore(0)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	s.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not wake blocked waiter")
	}
	assert.ErrorIs(t, s.Signal(), ErrSemaphoreClosed)
}
