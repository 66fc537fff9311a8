package tracer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSessionTraceTrueBinary exercises the real ptrace path end to end:
// spawn /bin/true under trace and drain events until the session quits.
// ptrace requires CAP_SYS_PTRACE (or running as the target's real uid
// with yama disabled) and is frequently unavailable in sandboxed CI, so
// this only runs when explicitly requested.
func TestSessionTraceTrueBinary(t *testing.T) {
	if os.Getenv("TRACY_RUN_PTRACE_TESTS") == "" {
		t.Skip("set TRACY_RUN_PTRACE_TESTS=1 to run tests that require real ptrace access")
	}

	s := Init(Config{})
	defer s.Free()

	var sawExit bool
	s.Hooks().SetDefaultHook(func(ev *Event) HookResult {
		if !ev.Entry {
			sawExit = true
		}
		return HookContinue
	})

	tr, err := s.ForkTraceExec("/bin/true", nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	for {
		ev, err := s.WaitEvent()
		require.NoError(t, err)
		if ev.Kind == EventQuit {
			break
		}
	}

	require.True(t, sawExit)
}
