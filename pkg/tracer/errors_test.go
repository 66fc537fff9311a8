package tracer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newErr(KindKernelRefused, "InjectSyscall", 42, cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "InjectSyscall")
	require.Contains(t, err.Error(), "42")
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "kernel_refused", KindKernelRefused.String())
	require.Equal(t, "memory_access", KindMemoryAccess.String())
	require.Equal(t, "protocol_violation", KindProtocolViolation.String())
	require.Equal(t, "unrecoverable", KindUnrecoverable.String())
}
