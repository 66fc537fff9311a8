package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	byName map[string]uint64
}

func (f *fakeResolver) Resolve(name string) (uint64, bool) {
	nr, ok := f.byName[name]
	return nr, ok
}

func (f *fakeResolver) Name(nr uint64) string {
	for name, n := range f.byName {
		if n == nr {
			return name
		}
	}
	return ""
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{byName: map[string]uint64{"getpid": 39, "getuid": 102, "openat": 257}}
}

func TestHookRegistryDispatch(t *testing.T) {
	reg := NewHookRegistry(newFakeResolver())

	var seen []uint64
	ok := reg.SetHook("getpid", func(ev *Event) HookResult {
		seen = append(seen, ev.SyscallNr)
		return HookContinue
	})
	require.True(t, ok)

	res := reg.ExecuteHook(&Event{SyscallNr: 39})
	require.Equal(t, HookContinue, res)
	require.Equal(t, []uint64{39}, seen)

	res = reg.ExecuteHook(&Event{SyscallNr: 102})
	require.Equal(t, HookNoHook, res)
}

func TestHookRegistryDefault(t *testing.T) {
	reg := NewHookRegistry(newFakeResolver())
	reg.SetDefaultHook(func(ev *Event) HookResult { return HookKill })

	res := reg.ExecuteHook(&Event{SyscallNr: 999})
	require.Equal(t, HookKill, res)
}

func TestHookRegistryUnknownName(t *testing.T) {
	reg := NewHookRegistry(newFakeResolver())
	ok := reg.SetHook("not_a_syscall", func(ev *Event) HookResult { return HookContinue })
	require.False(t, ok)
}

func TestHookRegistryCacheInvalidatedOnOverwrite(t *testing.T) {
	reg := NewHookRegistry(newFakeResolver())

	reg.SetHookNr(39, func(ev *Event) HookResult { return HookContinue })
	reg.ExecuteHook(&Event{SyscallNr: 39}) // populate cache

	reg.SetHookNr(39, func(ev *Event) HookResult { return HookAbort })
	res := reg.ExecuteHook(&Event{SyscallNr: 39})
	require.Equal(t, HookAbort, res)
}

func TestFilterHookLetsUnblockedThrough(t *testing.T) {
	hook := FilterHook(nil, map[uint64]bool{39: true}, nil)
	res := hook(&Event{SyscallNr: 102, Entry: true})
	require.Equal(t, HookContinue, res)
}

func TestFilterHookIgnoresExitStops(t *testing.T) {
	// a POST stop for a blocked number must never trigger DenySyscall,
	// which only makes sense against a PRE stop; passing a nil session
	// would panic if FilterHook ever dereferenced it here.
	hook := FilterHook(nil, map[uint64]bool{39: true}, nil)
	res := hook(&Event{SyscallNr: 39, Entry: false})
	require.Equal(t, HookContinue, res)
}

func TestFilterHookCallsOnBlockedBeforeDenying(t *testing.T) {
	var notified []uint64
	hook := FilterHook(nil, map[uint64]bool{39: true}, func(ev *Event) {
		notified = append(notified, ev.SyscallNr)
	})

	// DenySyscall's PtraceGetRegs will fail against a pid this test
	// process never attached to (no real tracee here); FilterHook
	// swallows that error and still returns HookContinue, but onBlocked
	// must have already fired by the time it does.
	res := hook(&Event{SyscallNr: 39, Entry: true, Tracee: &Tracee{pid: 1}})
	require.Equal(t, HookContinue, res)
	require.Equal(t, []uint64{39}, notified)
}
