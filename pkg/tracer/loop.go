package tracer

import (
	"syscall"

	"tracy/arch"
)

// WaitEvent blocks until there is something for the controller to see:
// a syscall PRE/POST stop, a signal delivery, or the session winding
// down because every tracee has exited. Fork/clone/exec adoption and
// the engine's own injection stops are handled internally and never
// reach here.
func (s *Session) WaitEvent() (*Event, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}

	if s.aborted {
		return &Event{Kind: EventQuit}, nil
	}

	for {
		ev, err := s.pumpOnce()
		if err != nil {
			return nil, err
		}
		if ev != nil {
			return ev, nil
		}
	}
}

// stepInternal drives exactly one wait4 cycle on behalf of a synchronous
// InjectSyscall call. Any surfaceable event it produces for some other
// tracee is queued for the next WaitEvent rather than lost.
func (s *Session) stepInternal() error {
	ev, err := s.pumpOnce()
	if err != nil {
		return err
	}
	if ev != nil {
		s.pending = append(s.pending, ev)
	}
	return nil
}

// pumpOnce performs a single wait4(-1, ...) and classifies the result.
// It returns (nil, nil) when the stop was handled internally and the
// caller should call pumpOnce again; it returns a non-nil *Event when
// something should be surfaced to the controller.
func (s *Session) pumpOnce() (*Event, error) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(-1, &ws, 0, nil)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		if err == syscall.ECHILD {
			return &Event{Kind: EventQuit}, nil
		}
		return nil, newErr(KindKernelRefused, "WaitEvent", pid, err)
	}

	tr := s.children.lookup(pid)
	if tr == nil {
		// A stop for a pid nobody admitted yet: a fork/clone child whose
		// own first stop raced ahead of the parent's PTRACE_EVENT_FORK
		// being processed. attached is set false here and corrected to
		// the parent's value (never to true out of thin air) if and when
		// handlePtraceEvent/AdoptSafeFork processes that fork event.
		tr = s.children.admit(pid, s, false)
	}

	if ws.Exited() || ws.Signaled() {
		s.children.forget(pid)
		if s.children.count() == 0 {
			return &Event{Kind: EventQuit}, nil
		}
		return nil, nil
	}

	if !ws.Stopped() {
		return nil, nil
	}

	sig := ws.StopSignal()

	if sig == syscall.SIGTRAP|0x80 {
		return s.handleSyscallStop(tr)
	}

	if sig == syscall.SIGTRAP {
		return s.handlePtraceEvent(tr, ws)
	}

	// The first stop of a newly auto-attached fork/clone child is the
	// kernel's SIGSTOP; it belongs to adoption, so it is consumed here and
	// the child resumed without the signal.
	if sig == syscall.SIGSTOP && tr.lastEvent.Kind == 0 {
		if err := syscall.PtraceSyscall(pid, 0); err != nil {
			return nil, newErr(KindKernelRefused, "WaitEvent", pid, err)
		}
		return nil, nil
	}

	// plain signal delivery
	ev := &Event{Kind: EventSignal, Tracee: tr, Signal: int(sig)}
	if err := syscall.PtraceSyscall(pid, int(sig)); err != nil {
		return nil, newErr(KindKernelRefused, "WaitEvent", pid, err)
	}
	return ev, nil
}

func (s *Session) handlePtraceEvent(tr *Tracee, ws syscall.WaitStatus) (*Event, error) {
	switch ws.TrapCause() {
	case syscall.PTRACE_EVENT_FORK, syscall.PTRACE_EVENT_VFORK, syscall.PTRACE_EVENT_CLONE:
		// Adoption per spec §4.3 step 3: admit with attached inherited
		// from tr and fire the child-created notification. Under
		// OptUseSafeTrace, route through AdoptSafeFork instead so
		// safe_fork_pid is recorded too — safeForkPid is set by the
		// safe-fork protocol alone, never by ordinary adoption.
		if newPid, err := syscall.PtraceGetEventMsg(tr.pid); err == nil {
			if s.opts&OptUseSafeTrace != 0 {
				s.AdoptSafeFork(tr, int(newPid))
			} else {
				s.adoptChild(tr, int(newPid))
			}
		}
	case syscall.PTRACE_EVENT_EXEC:
		// a syscall-exit stop for the execve follows; tr.state is
		// already stateIdlePost from the matching entry stop.
	}

	if err := syscall.PtraceSyscall(tr.pid, 0); err != nil {
		return nil, newErr(KindKernelRefused, "WaitEvent", tr.pid, err)
	}
	return nil, nil
}

// adoptChild completes ordinary fork/clone adoption (spec §4.3 step 3):
// admits childPid if the event loop hasn't already registered it,
// inheriting parent's attached flag, and fires the child-created
// notification exactly once, on first admission.
func (s *Session) adoptChild(parent *Tracee, childPid int) *Tracee {
	child := s.children.lookup(childPid)
	if child == nil {
		child = s.children.admit(childPid, s, parent.attached)
		if s.onChildCreated != nil {
			s.onChildCreated(child)
		}
		return child
	}
	child.attached = parent.attached
	return child
}

func (s *Session) handleSyscallStop(tr *Tracee) (*Event, error) {
	var raw syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(tr.pid, &raw); err != nil {
		return nil, newErr(KindKernelRefused, "WaitEvent", tr.pid, err)
	}

	if tr.inject.phase != injectNone {
		if s.advanceInjection(tr, &raw) {
			return nil, nil
		}
		// fell through: this is the original syscall's real POST
		return s.dispatchExit(tr, arch.New(&raw))
	}

	if tr.state == stateDeniedPreWaitingPost {
		return s.dispatchDeniedExit(tr)
	}

	regs := arch.New(&raw)
	if tr.state == stateIdlePre {
		return s.dispatchEntry(tr, regs)
	}
	return s.dispatchExit(tr, regs)
}

// isForkFamily reports whether nr is one of this architecture's
// fork/vfork/clone syscall numbers (arch.NoSyscall never matches).
func isForkFamily(nr uint64) bool {
	c := arch.Current
	return (nr == c.ForkNr && c.ForkNr != arch.NoSyscall) ||
		(nr == c.VforkNr && c.VforkNr != arch.NoSyscall) ||
		(nr == c.CloneNr && c.CloneNr != arch.NoSyscall)
}

// interceptSafeForkEntry begins the safe-fork protocol's PRE-stop half
// (spec §4.6 step 1): the tracee's own fork/vfork/clone is let through
// to the kernel untouched — PTRACE_O_TRACEFORK/VFORK/CLONE is already
// set whenever OptUseSafeTrace is (see ptraceOptions), which guarantees
// the kernel stops the new child before it executes any user-mode
// instruction, the same safety property a manual no-op-then-reinject
// splice would otherwise have to construct by hand. The pair is marked
// so its POST is intercepted instead of dispatched to the hook registry.
func (s *Session) interceptSafeForkEntry(tr *Tracee) (*Event, error) {
	tr.awaitingSafeFork = true
	if tr.state == stateIdlePre {
		tr.state = stateIdlePost
	}
	if err := syscall.PtraceSyscall(tr.pid, 0); err != nil {
		return nil, newErr(KindKernelRefused, "WaitEvent", tr.pid, err)
	}
	return nil, nil
}

// completeSafeForkExit finishes the safe-fork protocol (spec §4.6 steps
// 3-4): the fork/vfork/clone's own return value is the new child's pid
// in the parent, so no PTRACE_GETEVENTMSG round trip is needed here —
// it correlates the child via AdoptSafeFork and resumes the parent with
// no syscall event surfaced for the fork itself, exactly as if the
// parent had just returned from an ordinary, unintercepted fork.
func (s *Session) completeSafeForkExit(tr *Tracee, regs arch.Registers) (*Event, error) {
	tr.awaitingSafeFork = false
	if tr.state == stateIdlePost {
		tr.state = stateIdlePre
	}

	if ret := regs.Return(); ret > 0 {
		s.AdoptSafeFork(tr, int(ret))
	}

	if err := s.resumeIfIdle(tr); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Session) dispatchEntry(tr *Tracee, regs arch.Registers) (*Event, error) {
	if s.opts&OptUseSafeTrace != 0 && isForkFamily(regs.Syscall()) {
		return s.interceptSafeForkEntry(tr)
	}

	ev := &Event{
		Kind:      EventSyscall,
		Tracee:    tr,
		SyscallNr: regs.Syscall(),
		Args:      regs.Args(),
		Entry:     true,
	}
	tr.lastEvent = *ev

	result := s.dispatchHook(tr, ev)

	switch result {
	case HookKill:
		syscall.Kill(tr.pid, syscall.SIGKILL)
		s.children.forget(tr.pid)
		return nil, nil
	case HookAbort:
		s.aborted = true
		return &Event{Kind: EventQuit}, nil
	}

	// A synchronous InjectSyscall from the hook has already carried the
	// original syscall through its POST (queued in s.pending) and resumed tr.
	if tr.state == stateIdlePre && !tr.lastEvent.Entry {
		return ev, nil
	}

	if tr.state == stateIdlePre {
		tr.state = stateIdlePost
	}
	if err := s.resumeIfIdle(tr); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Session) dispatchExit(tr *Tracee, regs arch.Registers) (*Event, error) {
	if tr.awaitingSafeFork {
		return s.completeSafeForkExit(tr, regs)
	}

	ev := &Event{
		Kind:      EventSyscall,
		Tracee:    tr,
		SyscallNr: regs.Syscall(),
		Entry:     false,
		Return:    regs.Return(),
	}
	tr.lastEvent = *ev

	result := s.dispatchHook(tr, ev)

	switch result {
	case HookKill:
		syscall.Kill(tr.pid, syscall.SIGKILL)
		s.children.forget(tr.pid)
		return nil, nil
	case HookAbort:
		s.aborted = true
		return &Event{Kind: EventQuit}, nil
	}

	if tr.state == stateIdlePost {
		tr.state = stateIdlePre
	}
	if err := s.resumeIfIdle(tr); err != nil {
		return nil, err
	}
	return ev, nil
}

// dispatchDeniedExit synthesizes the POST of a syscall the controller
// denied at PRE, without consulting the kernel's actual register state
// for this stop (set up by DenySyscall to report as EPERM unconditionally).
func (s *Session) dispatchDeniedExit(tr *Tracee) (*Event, error) {
	const ePerm = 1
	ev := &Event{
		Kind:      EventSyscall,
		Tracee:    tr,
		SyscallNr: tr.deniedNr,
		Entry:     false,
		Return:    -ePerm,
	}
	tr.lastEvent = *ev
	tr.state = stateIdlePre

	s.dispatchHook(tr, ev)

	if err := s.resumeIfIdle(tr); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Session) dispatchHook(tr *Tracee, ev *Event) HookResult {
	if s.hooks == nil {
		return HookNoHook
	}
	return s.hooks.ExecuteHook(ev)
}

// resumeIfIdle resumes tr unless a hook just parked it in an
// injecting/denied sub-state, in which case the code that made that
// transition already issued its own PtraceSyscall resume.
func (s *Session) resumeIfIdle(tr *Tracee) error {
	switch tr.state {
	case stateIdlePre, stateIdlePost:
		if err := syscall.PtraceSyscall(tr.pid, 0); err != nil {
			return newErr(KindKernelRefused, "WaitEvent", tr.pid, err)
		}
	}
	return nil
}
