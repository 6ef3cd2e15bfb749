package kit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadRegistry_RegisterLookupUnregister(t *testing.T) {
	r := newThreadRegistry()
	th := &Thread{name: "reg-basic", goroutineID: 999001}

	id := r.register(th)
	assert.Same(t, th, r.lookup(999001))

	r.unregister(id)
	assert.Nil(t, r.lookup(999001))
}

func TestThreadRegistry_UnregisterUnknownIDIsNoop(t *testing.T) {
	r := newThreadRegistry()
	assert.NotPanics(t, func() { r.unregister(12345) })
}

func TestThreadRegistry_TraverseVisitsAllThenStopsOnAbort(t *testing.T) {
	r := newThreadRegistry()
	a := &Thread{name: "a", goroutineID: 1}
	b := &Thread{name: "b", goroutineID: 2}
	c := &Thread{name: "c", goroutineID: 3}
	r.register(a)
	r.register(b)
	r.register(c)

	var visited []string
	r.traverse(func(th *Thread) TraverseResult {
		visited = append(visited, th.name)
		return TraverseContinue
	})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, visited)

	var count int
	r.traverse(func(th *Thread) TraverseResult {
		count++
		return TraverseAbort
	})
	assert.Equal(t, 1, count)
}

func TestThreadRegistry_CountReflectsLiveEntries(t *testing.T) {
	r := newThreadRegistry()
	assert.Equal(t, 0, r.count())

	th := &Thread{name: "counted", goroutineID: 42}
	id := r.register(th)
	assert.Equal(t, 1, r.count())

	r.unregister(id)
	assert.Equal(t, 0, r.count())
}

func TestThreadRegistry_RealThreadLifecycleUpdatesGlobalRegistry(t *testing.T) {
	before := threadRegistry.count()

	done := make(chan struct{})
	th, err := TryCreate(RunnableFunc(func() {
		close(done)
		<-GetCurrent().StopChannel()
	}), "registry-lifecycle")
	require.NoError(t, err)

	<-done
	assert.Eventually(t, func() bool {
		return threadRegistry.count() == before+1
	}, time.Second, time.Millisecond)

	Destroy(th, 1000)
	assert.Eventually(t, func() bool {
		return threadRegistry.count() == before
	}, time.Second, time.Millisecond)
}

func TestThreadRegistry_DistinctGoroutineIDsDoNotCollide(t *testing.T) {
	r := newThreadRegistry()
	a := &Thread{name: "a", goroutineID: 111}
	b := &Thread{name: "b", goroutineID: 222}
	r.register(a)
	r.register(b)

	assert.Same(t, a, r.lookup(111))
	assert.Same(t, b, r.lookup(222))
	assert.Nil(t, r.lookup(333))
}
