// Package tracer implements a ptrace-based syscall tracing and
// injection engine: attach to or spawn a process, observe every
// syscall it makes at entry and exit, and optionally deny, modify, or
// splice in syscalls of the engine's own choosing.
package tracer

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"tracy/internal/sysnum"
)

// Option is a bitset of session-wide behaviors, set once at Init.
type Option uint32

const (
	// OptTraceChildren makes the session follow fork/vfork/clone
	// automatically (PTRACE_O_TRACEFORK et al). Without it (and without
	// OptUseSafeTrace, which turns the same options on), only the
	// originally attached/spawned pid is ever traced.
	OptTraceChildren Option = 1 << iota
	// OptVerbose enables the session's StreamLogger on stderr in
	// addition to whatever Logger the caller installs.
	OptVerbose
	// OptUseSafeTrace enables the safe-fork protocol for a tracee's own
	// fork/vfork/clone calls: their PRE/POST pair is kept from the hook
	// registry and the new child is adopted and recorded for
	// Tracee.SafeForkChild (see interceptSafeForkEntry in loop.go). It
	// also follows children as OptTraceChildren does, and routes
	// ForkTraceExec through forkTraceExecSafe, which starts the child
	// with PTRACE_TRACEME like TraceCmd.
	OptUseSafeTrace
)

// Config configures a Session at construction time.
type Config struct {
	Options  Option
	Resolver NameResolver // defaults to sysnum.Default()
	Logger   Logger       // optional; nil disables logging

	// OnChildCreated, if set, is invoked once for every tracee admitted
	// as a fork/vfork/clone descendant of an existing one (including
	// through the safe-fork protocol), before any event is surfaced for
	// it. It is not called for the session's own root tracee.
	OnChildCreated func(child *Tracee)
}

// Session owns every tracee spawned or attached under it, the hook
// registry dispatching their syscall stops, and the engine's injection
// and safe-fork machinery.
type Session struct {
	opts Option

	children       *childRegistry
	hooks          *HookRegistry
	resolver       NameResolver
	logger         Logger
	onChildCreated func(child *Tracee)

	pending []*Event
	aborted bool
	closed  bool
}

// Init constructs a Session ready to spawn or attach tracees.
func Init(cfg Config) *Session {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = sysnum.Default()
	}

	logger := cfg.Logger
	if cfg.Options&OptVerbose != 0 {
		verbose := NewStreamLogger(os.Stderr, resolver)
		if logger != nil {
			logger = &multiLogger{loggers: []Logger{logger, verbose}}
		} else {
			logger = verbose
		}
	}

	s := &Session{
		opts:           cfg.Options,
		children:       newChildRegistry(),
		resolver:       resolver,
		logger:         logger,
		onChildCreated: cfg.OnChildCreated,
	}
	s.hooks = NewHookRegistry(resolver)
	return s
}

// Hooks returns the session's hook registry, for SetHook/SetDefaultHook.
func (s *Session) Hooks() *HookRegistry { return s.hooks }

// Free tears down every remaining tracee and releases session
// resources: tracees acquired by Attach are detached and left running,
// tracees acquired by fork (ForkTraceExec/TraceCmd, and their
// descendants) are killed, per tracee.attached. Session methods other
// than Quit must not be called after Free returns.
func (s *Session) Free() {
	if s.closed {
		return
	}
	for _, pid := range s.children.pids() {
		if tr := s.children.lookup(pid); tr != nil && tr.attached {
			syscall.PtraceDetach(pid)
		} else {
			syscall.Kill(pid, syscall.SIGKILL)
		}
		s.children.forget(pid)
	}
	s.closed = true
}

// Quit is a supplemented convenience over Free for short-lived driver
// programs: it tears the session down and exits the process with code.
func (s *Session) Quit(code int) {
	s.Free()
	os.Exit(code)
}

// ForkTraceExec starts name(args...) under trace, inheriting the
// controlling terminal's stdio, and returns its Tracee after its first
// stop (before the new program's first instruction) has been consumed,
// its trace options set, and the tracee resumed.
func (s *Session) ForkTraceExec(name string, args []string) (*Tracee, error) {
	if s.opts&OptUseSafeTrace != 0 {
		return s.forkTraceExecSafe(name, args)
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return s.TraceCmd(cmd, nil)
}

// TraceCmd starts an already-configured *exec.Cmd under trace. Callers
// that need a pty or other custom stdio wiring build cmd themselves
// (e.g. with creack/pty) and pass it in, rather than going through
// ForkTraceExec. onStart, if non-nil, runs once the child has been
// started and its trace options set, before the first resume (useful
// for closing a pty's slave end in the parent, the way a shell's own
// job control does).
func (s *Session) TraceCmd(cmd *exec.Cmd, onStart func()) (*Tracee, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Ptrace = true

	if err := cmd.Start(); err != nil {
		return nil, newErr(KindKernelRefused, "TraceCmd", 0, fmt.Errorf("start: %w", err))
	}
	pid := cmd.Process.Pid

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, newErr(KindKernelRefused, "TraceCmd", pid, err)
	}

	if err := syscall.PtraceSetOptions(pid, s.ptraceOptions()); err != nil {
		return nil, newErr(KindKernelRefused, "TraceCmd", pid, err)
	}

	tr := s.children.admit(pid, s, false)

	if onStart != nil {
		onStart()
	}

	if err := syscall.PtraceSyscall(pid, 0); err != nil {
		return nil, newErr(KindKernelRefused, "TraceCmd", pid, err)
	}
	return tr, nil
}

// Attach begins tracing an already-running process.
func (s *Session) Attach(pid int) (*Tracee, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := syscall.PtraceAttach(pid); err != nil {
		return nil, newErr(KindKernelRefused, "Attach", pid, err)
	}

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, newErr(KindKernelRefused, "Attach", pid, err)
	}

	if err := syscall.PtraceSetOptions(pid, s.ptraceOptions()); err != nil {
		return nil, newErr(KindKernelRefused, "Attach", pid, err)
	}

	tr := s.children.admit(pid, s, true)

	if err := syscall.PtraceSyscall(pid, 0); err != nil {
		return nil, newErr(KindKernelRefused, "Attach", pid, err)
	}
	return tr, nil
}

func (s *Session) ptraceOptions() int {
	opts := syscall.PTRACE_O_TRACESYSGOOD | syscall.PTRACE_O_TRACEEXEC
	// use-safe-trace implies following children: the safe-fork protocol
	// has nothing to intercept if descendants are never auto-traced.
	if s.opts&(OptTraceChildren|OptUseSafeTrace) != 0 {
		opts |= syscall.PTRACE_O_TRACEFORK | syscall.PTRACE_O_TRACEVFORK | syscall.PTRACE_O_TRACECLONE
	}
	return opts
}

// Main runs WaitEvent in a loop, logging through s.logger (when set)
// and the hook registry's own dispatch, until the session reports
// EventQuit. It's a convenience for drivers that have no extra
// bookkeeping to interleave with the event loop; anything else should
// call WaitEvent directly.
func (s *Session) Main() error {
	for {
		ev, err := s.WaitEvent()
		if err != nil {
			return err
		}
		if s.logger != nil && ev.Kind == EventSyscall {
			if ev.Entry {
				s.logger.LogEntry(ev)
			} else {
				s.logger.LogExit(ev)
			}
		}
		if ev.Kind == EventQuit {
			return nil
		}
	}
}

// ChildrenCount returns the number of tracees currently attached.
func (s *Session) ChildrenCount() int { return s.children.count() }

// RemoveChild detaches from pid without killing it.
func (s *Session) RemoveChild(pid int) error {
	if s.children.lookup(pid) == nil {
		return ErrNoSuchTracee
	}
	if err := syscall.PtraceDetach(pid); err != nil {
		return newErr(KindKernelRefused, "RemoveChild", pid, err)
	}
	s.children.forget(pid)
	return nil
}

// KillChild kills and forgets pid.
func (s *Session) KillChild(pid int) error {
	if s.children.lookup(pid) == nil {
		return ErrNoSuchTracee
	}
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		return newErr(KindKernelRefused, "KillChild", pid, err)
	}
	s.children.forget(pid)
	return nil
}

// Continue issues one PTRACE_SYSCALL resume of tr with signal sig. The
// event loop already resumes every tracee it reports on, whether or not
// any hook is installed, so this succeeds only while tr is still in a
// ptrace-stop that nothing else has resumed.
func (s *Session) Continue(tr *Tracee, sig int) error {
	if err := syscall.PtraceSyscall(tr.pid, sig); err != nil {
		return newErr(KindKernelRefused, "Continue", tr.pid, err)
	}
	return nil
}
