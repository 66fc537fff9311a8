package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTraceeIsEntry(t *testing.T) {
	tr := &Tracee{state: stateIdlePre}
	require.True(t, tr.IsEntry())

	tr.state = stateIdlePost
	require.False(t, tr.IsEntry())

	tr.state = stateInjectingPre
	require.True(t, tr.IsEntry())

	tr.state = stateInjectingPost
	require.False(t, tr.IsEntry())

	tr.state = stateDeniedPreWaitingPost
	require.True(t, tr.IsEntry())
}

func TestTraceeMemLazy(t *testing.T) {
	tr := &Tracee{pid: 1}
	require.Nil(t, tr.mem)
	m := tr.Mem()
	require.NotNil(t, m)
	require.Same(t, m, tr.Mem())
}
