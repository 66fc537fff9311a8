package tracer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChildRegistryAdmitLookupForget(t *testing.T) {
	r := newChildRegistry()

	tr := r.admit(100, nil, false)
	require.Equal(t, 100, tr.pid)
	require.False(t, tr.attached)
	require.Equal(t, 1, r.count())

	got := r.lookup(100)
	require.Same(t, tr, got)

	r.forget(100)
	require.Equal(t, 0, r.count())
	require.Nil(t, r.lookup(100))
}

func TestChildRegistryPidsSorted(t *testing.T) {
	r := newChildRegistry()
	r.admit(300, nil, false)
	r.admit(100, nil, true)
	r.admit(200, nil, false)

	require.Equal(t, []int{100, 200, 300}, r.pids())
}

func TestChildRegistryLookupMiss(t *testing.T) {
	r := newChildRegistry()
	require.Nil(t, r.lookup(12345))
}

func TestChildRegistryForgetClosesMemWindow(t *testing.T) {
	// Use this test process's own pid so /proc/<pid>/mem is guaranteed
	// to exist and be openable, independent of real ptrace access.
	pid := os.Getpid()

	r := newChildRegistry()
	tr := r.admit(pid, nil, false)
	tr.mem = newMemWindow(pid)

	f, err := tr.mem.procMem()
	require.NoError(t, err)
	require.NotNil(t, f)

	r.forget(pid)
	require.Nil(t, tr.mem.file)
}

func TestChildRegistryAdmitRecordsAttached(t *testing.T) {
	r := newChildRegistry()
	attached := r.admit(100, nil, true)
	forked := r.admit(200, nil, false)

	require.True(t, attached.attached)
	require.False(t, forked.attached)
}
