package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These values are part of the engine's stable wire format (the eventlog
// package persists them directly), so a change here is a breaking change
// to every consumer, not just a refactor.
func TestEventKindStableValues(t *testing.T) {
	require.EqualValues(t, 1, EventNone)
	require.EqualValues(t, 2, EventSyscall)
	require.EqualValues(t, 3, EventSignal)
	require.EqualValues(t, 4, EventInternal)
	require.EqualValues(t, 5, EventQuit)
}

func TestHookResultStableValues(t *testing.T) {
	require.EqualValues(t, 0, HookContinue)
	require.EqualValues(t, 1, HookKill)
	require.EqualValues(t, 2, HookAbort)
	require.EqualValues(t, 3, HookNoHook)
}
