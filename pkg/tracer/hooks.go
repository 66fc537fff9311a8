package tracer

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// HookFunc is called for both the PRE and POST stop of a syscall; Event.Entry
// tells it which. It returns what the event loop should do next.
type HookFunc func(ev *Event) HookResult

// NameResolver is the external collaborator a HookRegistry consults to
// turn a syscall name into a number for SetHook. The engine never bakes
// in its own syscall table; sysnum.Default() is the usual implementation,
// but a caller tracing a foreign architecture can supply their own.
type NameResolver interface {
	Resolve(name string) (nr uint64, ok bool)
	Name(nr uint64) string
}

// HookRegistry maps syscall numbers to HookFuncs. Lookups during the hot
// event loop path go through a small LRU so a registry with many entries
// doesn't pay map-probing cost on every syscall stop for a tracee that
// only exercises a handful of syscalls.
type HookRegistry struct {
	resolver NameResolver
	byNr     map[uint64]HookFunc
	def      HookFunc

	cache *lru.Cache[uint64, HookFunc]
}

// NewHookRegistry builds a registry that resolves names through resolver.
func NewHookRegistry(resolver NameResolver) *HookRegistry {
	cache, _ := lru.New[uint64, HookFunc](256)
	return &HookRegistry{
		resolver: resolver,
		byNr:     make(map[uint64]HookFunc),
		cache:    cache,
	}
}

// SetHook registers fn for the named syscall. It returns false if name is
// not known to the registry's resolver.
func (r *HookRegistry) SetHook(name string, fn HookFunc) bool {
	nr, ok := r.resolver.Resolve(name)
	if !ok {
		return false
	}
	r.SetHookNr(nr, fn)
	return true
}

// SetHookNr registers fn for a raw syscall number, bypassing name
// resolution (useful for syscalls the resolver's table doesn't carry).
func (r *HookRegistry) SetHookNr(nr uint64, fn HookFunc) {
	r.byNr[nr] = fn
	r.cache.Remove(nr)
}

// SetDefaultHook installs the fallback invoked for syscalls with no
// specific hook. A nil default makes ExecuteHook report HookNoHook for
// unmatched syscalls instead of calling anything.
func (r *HookRegistry) SetDefaultHook(fn HookFunc) {
	r.def = fn
}

// ExecuteHook dispatches ev to whatever hook is registered for its
// syscall number, falling back to the default hook if one is set.
func (r *HookRegistry) ExecuteHook(ev *Event) HookResult {
	if fn, ok := r.cache.Get(ev.SyscallNr); ok {
		if fn == nil {
			return r.runDefault(ev)
		}
		return fn(ev)
	}

	fn, ok := r.byNr[ev.SyscallNr]
	r.cache.Add(ev.SyscallNr, fn)
	if !ok {
		return r.runDefault(ev)
	}
	return fn(ev)
}

func (r *HookRegistry) runDefault(ev *Event) HookResult {
	if r.def == nil {
		return HookNoHook
	}
	return r.def(ev)
}

// NameOf resolves a syscall number back to a name via the registry's
// resolver, for logging and diagnostics.
func (r *HookRegistry) NameOf(nr uint64) string {
	return r.resolver.Name(nr)
}

// FilterHook builds a HookFunc that denies every syscall number in
// blocked at its PRE stop and otherwise lets it through untouched. If
// onBlocked is non-nil it is called once per denied attempt, before the
// denial is issued, for logging or bookkeeping.
//
// This is the registry-based replacement for the teacher's
// FilterHandler, which filtered at the single global handler rather
// than per syscall number: install the result with SetHookNr for each
// blocked number, or as the default hook. Either way it is a blocklist:
// only numbers in blocked are denied, everything else continues.
func FilterHook(session *Session, blocked map[uint64]bool, onBlocked func(ev *Event)) HookFunc {
	return func(ev *Event) HookResult {
		if !ev.Entry || !blocked[ev.SyscallNr] {
			return HookContinue
		}
		if onBlocked != nil {
			onBlocked(ev)
		}
		if err := session.DenySyscall(ev.Tracee); err != nil {
			return HookContinue
		}
		return HookContinue
	}
}
