package sysnum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRoundTrip(t *testing.T) {
	tbl := Default()

	nr, ok := tbl.Resolve("getpid")
	require.True(t, ok)
	require.Equal(t, "getpid", tbl.Name(nr))

	nr, ok = tbl.Resolve("munmap")
	require.True(t, ok)
	require.Equal(t, "munmap", tbl.Name(nr))
}

func TestUnknownName(t *testing.T) {
	tbl := Default()

	_, ok := tbl.Resolve("not_a_real_syscall")
	require.False(t, ok)
	require.Equal(t, "", tbl.Name(^uint64(0)))
}
