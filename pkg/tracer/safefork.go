package tracer

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"
)

// forkTraceExecSafe starts name(args...) for ForkTraceExec when
// OptUseSafeTrace is set. The child is started with PTRACE_TRACEME
// (SysProcAttr.Ptrace), so the kernel stops it with SIGTRAP once its
// execve completes, before any instruction of the new program runs, and
// the tracer sets its options at that stop. The child does not raise a
// SIGSTOP of its own; apart from Pdeathsig and the inherited stdio this
// is the same start sequence TraceCmd runs.
//
// This covers only the session's initial spawn. Safe interception of a
// tracee's own later fork/vfork/clone calls is a distinct mechanism —
// see dispatchEntry/dispatchExit in loop.go and AdoptSafeFork below.
func (s *Session) forkTraceExecSafe(name string, args []string) (*Tracee, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, newErr(KindKernelRefused, "ForkTraceExec", 0, fmt.Errorf("lookpath: %w", err))
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   append([]string{name}, args...),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		SysProcAttr: &syscall.SysProcAttr{
			Ptrace: true,
			// kill the child if the thread that started it exits.
			Pdeathsig: syscall.SIGKILL,
		},
	}

	if err := cmd.Start(); err != nil {
		return nil, newErr(KindKernelRefused, "ForkTraceExec", 0, fmt.Errorf("start: %w", err))
	}
	pid := cmd.Process.Pid

	// first stop: the SIGTRAP PTRACE_TRACEME raises once execve completes.
	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, newErr(KindKernelRefused, "ForkTraceExec", pid, err)
	}

	if err := syscall.PtraceSetOptions(pid, s.ptraceOptions()); err != nil {
		return nil, newErr(KindKernelRefused, "ForkTraceExec", pid, err)
	}

	tr := s.children.admit(pid, s, false)

	// resume into the new program; its next stop is an ordinary syscall
	// stop that the generic event loop already understands, so control
	// returns to the caller now rather than blocking for it here.
	if err := syscall.PtraceSyscall(pid, 0); err != nil {
		return nil, newErr(KindKernelRefused, "ForkTraceExec", pid, err)
	}
	return tr, nil
}

// AdoptSafeFork completes the safe-fork protocol's correlation step
// (spec §4.6 step 3): it admits childPid if the event loop's
// PTRACE_EVENT_FORK/VFORK/CLONE handling hasn't already done so (the
// two can arrive in either order), propagates parent's attached flag
// to it, fires the session's child-created notification, and records
// the linkage in parent.safeForkPid so the controller can find the
// child via Tracee.SafeForkChild before it executes anything.
//
// Called from loop.go's completeSafeForkExit when a PRE-intercepted
// fork/vfork/clone reaches its POST, and from handlePtraceEvent's
// PTRACE_EVENT_FORK/VFORK/CLONE handling when OptUseSafeTrace is set
// (without it, handlePtraceEvent calls adoptChild directly).
func (s *Session) AdoptSafeFork(parent *Tracee, childPid int) *Tracee {
	child := s.adoptChild(parent, childPid)
	parent.safeForkPid = childPid
	return child
}

// SafeForkChild returns the tracee spawned by parent's most recent
// fork/vfork/clone under the safe-fork protocol, or nil if none is
// pending.
func (t *Tracee) SafeForkChild(s *Session) *Tracee {
	if t.safeForkPid == 0 {
		return nil
	}
	return s.children.lookup(t.safeForkPid)
}
