package arch

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgRoundTrip(t *testing.T) {
	var raw syscall.PtraceRegs
	r := New(&raw)

	for i := 0; i < 6; i++ {
		r.SetArg(i, uint64(100+i))
	}
	r.SetSyscall(42)
	r.SetReturn(-7)
	r.SetIP(0x400000)

	require.Equal(t, uint64(42), r.Syscall())
	require.Equal(t, int64(-7), r.Return())
	require.Equal(t, uint64(0x400000), r.IP())
	for i := 0; i < 6; i++ {
		require.Equal(t, uint64(100+i), r.Arg(i))
	}
	require.Equal(t, [6]uint64{100, 101, 102, 103, 104, 105}, r.Args())
}

func TestIsSyscallStop(t *testing.T) {
	var raw syscall.PtraceRegs
	r := New(&raw)

	r.SetSyscall(^uint64(0))
	require.False(t, IsSyscallStop(r))

	r.SetSyscall(39) // getpid on amd64; value itself is arbitrary for this check
	require.True(t, IsSyscallStop(r))
}

func TestCurrentInfo(t *testing.T) {
	require.NotEmpty(t, Current.Name)
	require.Greater(t, Current.SyscallInstrWidth, uint64(0))
}
