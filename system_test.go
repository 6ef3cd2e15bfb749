package kit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_InitializeIsIdempotentAndAdoptsMainThread(t *testing.T) {
	Initialize()
	Initialize() // second call must be a no-op, not a double-registration panic

	// Initialize runs its startup hooks synchronously on the calling
	// goroutine, so mainThread.t is already visible here with no need to
	// poll across goroutines.
	assert.NotNil(t, mainThread.t)
	assert.Same(t, mainThread.t, TryGetCurrent())
}

func TestSystem_SleepDelegatesToRealTimeOutsideSimThread(t *testing.T) {
	start := time.Now()
	Sleep(15)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestSystem_SleepUsesSimTicksFromSimThread(t *testing.T) {
	done := make(chan struct{})
	th, err := TryCreate(RunnableFunc(func() {
		Sleep(5)
		close(done)
	}), "sleep-sim-thread", WithSimTicks())
	assert.NoError(t, err)
	defer Destroy(th, 1000)

	assert.Eventually(t, func() bool {
		return simTickHasParticipant(th)
	}, time.Second, time.Millisecond)

	select {
	case <-done:
		t.Fatal("sim thread's Sleep returned before the driver advanced the clock")
	case <-time.After(20 * time.Millisecond):
	}

	if !Advance(5) {
		t.Fatal("Advance did not accept the sim thread's park")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sim thread never resumed after Advance")
	}
}

func TestSystem_EnableSchedulingNeverReturns(t *testing.T) {
	returned := make(chan struct{})
	go func() {
		EnableScheduling()
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("EnableScheduling returned; it must block forever")
	case <-time.After(50 * time.Millisecond):
	}
}
