package kit

import (
	"sync"
	"weak"
)

// registry is the process-wide table of live Threads (§4.6), adapted from
// the teacher's promise registry (registry.go): a monotonic id keyed map of
// weak.Pointer values so a Thread that finishes without an explicit
// Destroy/unregister (e.g. a goroutine that simply returns) can still be
// garbage collected rather than pinned forever by the registry. A second
// map provides O(1) lookup by goroutine id for TryGetCurrent, since that is
// the hot path (every Wait/Signal/NowMS call on a sim-tick thread touches
// it).
type threadRegistryT struct {
	mu         sync.RWMutex
	byID       map[uint64]weak.Pointer[Thread]
	byGoroutID map[int64]uint64
	nextID     uint64
}

var threadRegistry = newThreadRegistry()

func newThreadRegistry() *threadRegistryT {
	return &threadRegistryT{
		byID:       make(map[uint64]weak.Pointer[Thread]),
		byGoroutID: make(map[int64]uint64),
		nextID:     1,
	}
}

// register adds t to the registry, keyed by t's already-set goroutineID,
// and returns the registry-assigned id used later to unregister it.
func (r *threadRegistryT) register(t *Thread) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.byID[id] = weak.Make(t)
	r.byGoroutID[t.goroutineID] = id
	return id
}

func (r *threadRegistryT) unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wp, ok := r.byID[id]; ok {
		if t := wp.Value(); t != nil {
			delete(r.byGoroutID, t.goroutineID)
		}
	}
	delete(r.byID, id)
}

// lookup resolves a Thread by the calling goroutine's id.
func (r *threadRegistryT) lookup(goroutineID int64) *Thread {
	r.mu.RLock()
	id, ok := r.byGoroutID[goroutineID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	r.mu.RLock()
	wp, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return wp.Value()
}

// traverse visits every live (not yet garbage collected) Thread in an
// unspecified order until visit returns TraverseAbort (§4.6).
func (r *threadRegistryT) traverse(visit func(t *Thread) TraverseResult) {
	r.mu.RLock()
	snapshot := make([]weak.Pointer[Thread], 0, len(r.byID))
	for _, wp := range r.byID {
		snapshot = append(snapshot, wp)
	}
	r.mu.RUnlock()

	for _, wp := range snapshot {
		t := wp.Value()
		if t == nil {
			continue
		}
		if visit(t) == TraverseAbort {
			return
		}
	}
}

// count returns the number of registry entries that still resolve to a
// live Thread; used by tests asserting registry cleanup on Destroy.
func (r *threadRegistryT) count() int {
	n := 0
	r.traverse(func(*Thread) TraverseResult {
		n++
		return TraverseContinue
	})
	return n
}
