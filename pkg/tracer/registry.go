package tracer

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// childRegistry is the engine's bookkeeping of every pid it currently
// traces. Lookups happen on every single syscall stop, so the hot path
// goes through a small LRU in front of the backing map the way DataDog's
// ptracer keys its per-pid process cache; the map stays authoritative,
// the cache just saves a probe for whichever handful of pids are
// actively looping through syscalls.
type childRegistry struct {
	mu       sync.RWMutex
	children map[int]*Tracee
	cache    *lru.Cache[int, *Tracee]
}

func newChildRegistry() *childRegistry {
	cache, _ := lru.New[int, *Tracee](64)
	return &childRegistry{
		children: make(map[int]*Tracee),
		cache:    cache,
	}
}

// admit registers a new tracee and returns it. attached records whether
// this tracee was acquired by attaching to an already-running process
// rather than by fork. It is propagated to a fork/clone descendant by
// the caller; the only later write is adoptChild replacing the
// provisional false of a child admitted before its parent's fork event
// with the parent's value.
func (r *childRegistry) admit(pid int, session *Session, attached bool) *Tracee {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &Tracee{pid: pid, session: session, state: stateIdlePre, attached: attached}
	r.children[pid] = t
	r.cache.Add(pid, t)
	return t
}

// forget removes a tracee, e.g. once it has exited, closing its memory
// window so the /proc/<pid>/mem descriptor isn't leaked.
func (r *childRegistry) forget(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.children[pid]; ok && t.mem != nil {
		t.mem.close()
	}
	delete(r.children, pid)
	r.cache.Remove(pid)
}

// lookup finds a tracee by pid, or nil if none is registered.
func (r *childRegistry) lookup(pid int) *Tracee {
	if t, ok := r.cache.Get(pid); ok {
		return t
	}

	r.mu.RLock()
	t := r.children[pid]
	r.mu.RUnlock()

	if t != nil {
		r.cache.Add(pid, t)
	}
	return t
}

// count returns the number of tracees currently admitted.
func (r *childRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.children)
}

// pids returns every admitted pid in ascending order, for deterministic
// shutdown iteration (Free kills children in a stable order rather than
// whatever order Go's map iteration happens to produce).
func (r *childRegistry) pids() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int, 0, len(r.children))
	for pid := range r.children {
		out = append(out, pid)
	}
	sort.Ints(out)
	return out
}
