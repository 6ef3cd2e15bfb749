package kit

import "sync"

// StartupLevel orders a StartupHook's callback relative to every other
// registered hook (§4: TEST_INFRA, SYSTEM, MIDDLEWARE, APPLICATION, drained
// lowest first).
type StartupLevel int

const (
	StartupLevelTestInfra StartupLevel = iota
	StartupLevelSystem
	StartupLevelMiddleware
	StartupLevelApplication

	startupLevelCount
)

func (l StartupLevel) String() string {
	switch l {
	case StartupLevelTestInfra:
		return "TEST_INFRA"
	case StartupLevelSystem:
		return "SYSTEM"
	case StartupLevelMiddleware:
		return "MIDDLEWARE"
	case StartupLevelApplication:
		return "APPLICATION"
	default:
		return "UNKNOWN"
	}
}

// StartupHook is a single initialization callback, self-registered at
// construction against the process-wide startup registry (§3: "four
// intrusive singly-linked lists keyed by level... a hook self-registers on
// construction"). Go has no constructor-time side effects equivalent to a
// base-class constructor running registration automatically, so
// RegisterStartupHook plays that role explicitly.
type StartupHook struct {
	level StartupLevel
	fn    func()
}

// RegisterStartupHook builds a StartupHook at the given level and adds it
// to the process-wide registry, returning it so it can later be
// unregistered (rare; mainly useful in tests that rebuild the registry
// between cases). It is a fatal error to register a hook while
// notifyStartupClients is draining (§4: ErrStartupAlreadyDraining), since a
// hook that adds another hook mid-drain could silently be skipped
// depending on where the drain cursor currently is.
func RegisterStartupHook(level StartupLevel, fn func()) *StartupHook {
	h := &StartupHook{level: level, fn: fn}
	if err := startupRegistry.add(h); err != nil {
		Fatal("RegisterStartupHook", err)
		return nil
	}
	return h
}

type startupHookRegistry struct {
	mu       sync.Mutex
	draining bool
	drained  bool
	levels   [startupLevelCount][]*StartupHook
}

var startupRegistry = &startupHookRegistry{}

func (r *startupHookRegistry) add(h *StartupHook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return ErrStartupAlreadyDraining
	}
	r.levels[h.level] = append(r.levels[h.level], h)
	return nil
}

// remove unregisters h; used by tests that want to rebuild a clean
// registry between cases without relying on process restart.
func (r *startupHookRegistry) remove(h *StartupHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.levels[h.level]
	for i, x := range list {
		if x == h {
			r.levels[h.level] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// notifyStartupClients drains every registered hook in level order, lowest
// first; order within a level is unspecified (§3). It is idempotent: a
// second call is a no-op, matching "never torn down" semantics for
// process-wide initialization.
func (r *startupHookRegistry) notifyStartupClients() {
	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		return
	}
	r.draining = true
	snapshot := r.levels
	r.mu.Unlock()

	for level := StartupLevel(0); level < startupLevelCount; level++ {
		for _, h := range snapshot[level] {
			if h.fn != nil {
				h.fn()
			}
		}
	}

	r.mu.Lock()
	r.draining = false
	r.drained = true
	r.mu.Unlock()
}
