package kit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerManager_BasicFireCount(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	var fired int
	c := NewCounter(1, func() { fired++ })
	m.Attach(c)

	m.tick(1)
	m.tickComplete()

	assert.Equal(t, 1, fired)
	assert.EqualValues(t, 1, m.FiredCount())
}

func TestTimerManager_DeltaListOrdering(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	var order []int
	a := NewCounter(30, func() { order = append(order, 1) })
	b := NewCounter(10, func() { order = append(order, 2) })
	c := NewCounter(20, func() { order = append(order, 3) })

	m.Attach(a)
	m.Attach(b)
	m.Attach(c)

	// Active list must now be ordered b(10) -> c(10) -> a(10) by delta,
	// i.e. absolute expirations 10, 20, 30.
	head := m.active.first()
	require.NotNil(t, head)
	assert.Same(t, b, head)

	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []int{2}, order)

	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []int{2, 3}, order)

	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []int{2, 3, 1}, order)
}

func TestTimerManager_DetachMiddleMergesDelta(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	var fired []int
	a := NewCounter(10, func() { fired = append(fired, 1) })
	b := NewCounter(20, func() { fired = append(fired, 2) }) // delta 10 from a
	c := NewCounter(30, func() { fired = append(fired, 3) }) // delta 10 from b

	m.Attach(a)
	m.Attach(b)
	m.Attach(c)

	ok := m.Detach(b)
	require.True(t, ok)

	// a's whole 10ms duration absorbs the first tick's entire budget, so
	// c (now holding its own 10ms delta plus b's merged 10ms) only starts
	// counting down on the following ticks.
	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []int{1}, fired)

	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []int{1}, fired, "c still has 10ms left after absorbing only half its merged delta")

	m.tick(10)
	m.tickComplete()

	// b's remaining delta (10) merged into c, so c still fires at the 30ms
	// it was originally attached for (20ms after a), and b never fires at
	// all.
	assert.Equal(t, []int{1, 3}, fired)
}

func TestTimerManager_DetachUnknownReturnsFalse(t *testing.T) {
	m := NewTimerManager()
	m.Start()
	c := NewCounter(10, func() {})
	assert.False(t, m.Detach(c))
}

func TestTimerManager_AttachDuringTickDefersToNextCycle(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	var secondFired bool
	second := NewCounter(1, func() { secondFired = true })

	first := NewCounter(1, func() {
		m.Attach(second) // attached mid-tick: must land on pending, not active
	})
	m.Attach(first)

	m.tick(1)
	assert.False(t, secondFired, "counter attached mid-tick must not fire in the same tick")

	m.tickComplete() // splices pending (holding second) into active

	m.tick(1)
	m.tickComplete()
	assert.True(t, secondFired)
}

func TestTimerManager_SurvivorDecrementsOnEveryCycle(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	// A long-lived timer must be decremented on every ProcessTimers cycle,
	// not just every other one: tickComplete splices pending attachments
	// into the still-live active list rather than swapping the survivor
	// out of it.
	var fired bool
	long := NewCounter(30, func() { fired = true })
	m.Attach(long)

	for i := 0; i < 2; i++ {
		m.tick(10)
		m.tickComplete()
		assert.False(t, fired)
		assert.True(t, m.AreActiveTimers(), "unfired timer must remain active across tickComplete")
	}

	m.tick(10)
	m.tickComplete()
	assert.True(t, fired)
}

func TestTimerManager_PendingAttachDuringTickPreservesSurvivorProgress(t *testing.T) {
	m := NewTimerManager()
	m.Start()

	var firedOrder []string
	survivor := NewCounter(20, func() { firedOrder = append(firedOrder, "survivor") })
	m.Attach(survivor)

	midTick := NewCounter(5, func() {
		firedOrder = append(firedOrder, "mid-tick-trigger")
		m.Attach(NewCounter(1, func() { firedOrder = append(firedOrder, "attached-mid-tick") }))
	})
	m.Attach(midTick)

	// First cycle: midTick (duration 5) fires and attaches a fresh 1ms
	// counter from inside its own callback; survivor (duration 20) must
	// not lose its already-elapsed 10ms of progress in the process.
	m.tick(10)
	m.tickComplete()
	assert.Equal(t, []string{"mid-tick-trigger"}, firedOrder)
	assert.True(t, m.AreActiveTimers())

	// Second cycle: the mid-tick attachment (1ms) fires well within this
	// 10ms tick, and survivor's remaining 10ms also reaches zero.
	m.tick(10)
	m.tickComplete()
	assert.Contains(t, firedOrder, "attached-mid-tick")
	assert.Contains(t, firedOrder, "survivor")
}

func TestTimerManager_AreActiveTimers(t *testing.T) {
	m := NewTimerManager()
	m.Start()
	assert.False(t, m.AreActiveTimers())
	m.Attach(NewCounter(100, func() {}))
	assert.True(t, m.AreActiveTimers())
}
