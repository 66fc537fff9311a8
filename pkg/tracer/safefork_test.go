package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tracy/arch"
)

func TestIsForkFamilyMatchesArchTable(t *testing.T) {
	c := arch.Current
	if c.ForkNr != arch.NoSyscall {
		require.True(t, isForkFamily(c.ForkNr))
	}
	if c.VforkNr != arch.NoSyscall {
		require.True(t, isForkFamily(c.VforkNr))
	}
	require.True(t, isForkFamily(c.CloneNr))
	require.False(t, isForkFamily(^uint64(0)-1))
}

func TestIsForkFamilyNeverMatchesNoSyscall(t *testing.T) {
	// A real syscall number can never legitimately equal the sentinel, but
	// the comparison must still refuse to treat it as a match: an
	// architecture missing fork/vfork (arm64) must not report every
	// syscall as fork-family just because its ForkNr/VforkNr == NoSyscall.
	require.False(t, isForkFamily(arch.NoSyscall))
}

func TestAdoptChildInheritsAttachedAndNotifiesOnce(t *testing.T) {
	s := Init(Config{})
	var notified []int
	s.onChildCreated = func(child *Tracee) {
		notified = append(notified, child.pid)
	}

	parent := s.children.admit(10, s, true)
	child := s.adoptChild(parent, 11)

	require.Equal(t, 11, child.pid)
	require.True(t, child.attached)
	require.Equal(t, []int{11}, notified)

	// a second adoption of the same pid (under OptUseSafeTrace both
	// handlePtraceEvent and completeSafeForkExit adopt the same child)
	// must not renotify or re-admit.
	again := s.adoptChild(parent, 11)
	require.Same(t, child, again)
	require.Equal(t, []int{11}, notified)
}

func TestAdoptChildCorrectsAttachedForRacingPid(t *testing.T) {
	s := Init(Config{})

	// simulates pumpOnce's fallback admit for a child stop that arrived
	// before the parent's PTRACE_EVENT_FORK was processed: attached
	// defaults false and must never be promoted to true out of thin air
	// except by inheriting an attached parent's flag via adoptChild.
	child := s.children.admit(21, s, false)
	parent := s.children.admit(20, s, true)

	got := s.adoptChild(parent, 21)
	require.Same(t, child, got)
	require.True(t, child.attached)
}

func TestAdoptSafeForkSetsSafeForkPidAndInherits(t *testing.T) {
	s := Init(Config{})
	var notified []int
	s.onChildCreated = func(child *Tracee) {
		notified = append(notified, child.pid)
	}

	parent := s.children.admit(30, s, false)
	child := s.AdoptSafeFork(parent, 31)

	require.Equal(t, 31, parent.safeForkPid)
	require.Same(t, child, s.children.lookup(31))
	require.False(t, child.attached)
	require.Equal(t, []int{31}, notified)
}

func TestSafeForkChildLooksUpRecordedPid(t *testing.T) {
	s := Init(Config{})
	parent := s.children.admit(40, s, true)

	require.Nil(t, parent.SafeForkChild(s))

	child := s.AdoptSafeFork(parent, 41)
	require.Same(t, child, parent.SafeForkChild(s))
}

func TestInterceptSafeForkEntryMarksAwaitingAndAdvancesState(t *testing.T) {
	s := Init(Config{})
	tr := s.children.admit(70, s, true)
	tr.state = stateIdlePre

	// interceptSafeForkEntry issues a real PtraceSyscall resume against a
	// pid this test process never attached to, so it returns an error; the
	// state bookkeeping it does before that resume attempt is still
	// observable regardless.
	_, err := s.interceptSafeForkEntry(tr)
	require.Error(t, err)
	require.True(t, tr.awaitingSafeFork)
	require.Equal(t, stateIdlePost, tr.state)
}

func TestCompleteSafeForkExitClearsAwaitingAndAdoptsOnPositiveReturn(t *testing.T) {
	s := Init(Config{})
	var notified []int
	s.onChildCreated = func(child *Tracee) {
		notified = append(notified, child.pid)
	}

	parent := s.children.admit(50, s, true)
	parent.awaitingSafeFork = true
	parent.state = stateIdlePost

	_, err := s.completeSafeForkExit(parent, fakeReturnRegs{ret: 51})
	require.Error(t, err) // PtraceSyscall against a non-tracee pid fails
	require.False(t, parent.awaitingSafeFork)
	require.Equal(t, stateIdlePre, parent.state)
	require.Equal(t, 51, parent.safeForkPid)
	require.Equal(t, []int{51}, notified)

	child := s.children.lookup(51)
	require.NotNil(t, child)
	require.True(t, child.attached)
}

func TestCompleteSafeForkExitSkipsAdoptionOnNonPositiveReturn(t *testing.T) {
	s := Init(Config{})
	parent := s.children.admit(60, s, true)
	parent.awaitingSafeFork = true
	parent.state = stateIdlePost

	_, err := s.completeSafeForkExit(parent, fakeReturnRegs{ret: -1})
	require.Error(t, err)
	require.False(t, parent.awaitingSafeFork)
	require.Equal(t, 0, parent.safeForkPid)
}

// fakeReturnRegs is a minimal arch.Registers stub exposing only the
// Return value completeSafeForkExit reads; every other method is unused
// by that path and panics if ever called, to catch an accidental
// dependency on more of the interface.
type fakeReturnRegs struct {
	ret int64
}

func (fakeReturnRegs) Syscall() uint64       { panic("unused") }
func (fakeReturnRegs) SetSyscall(uint64)     { panic("unused") }
func (fakeReturnRegs) Arg(int) uint64        { panic("unused") }
func (fakeReturnRegs) SetArg(int, uint64)    { panic("unused") }
func (fakeReturnRegs) Args() [6]uint64       { panic("unused") }
func (r fakeReturnRegs) Return() int64       { return r.ret }
func (fakeReturnRegs) SetReturn(int64)       { panic("unused") }
func (fakeReturnRegs) IP() uint64            { panic("unused") }
func (fakeReturnRegs) SetIP(uint64)          { panic("unused") }
func (fakeReturnRegs) SP() uint64            { panic("unused") }
