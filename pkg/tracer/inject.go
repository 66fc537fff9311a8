package tracer

import (
	"syscall"

	"tracy/arch"
)

// InjectSyscall splices nr(args...) into tr at its current PRE stop and
// blocks until the injected call has run to completion, returning its
// result. tr's original syscall is restored and re-armed to run
// immediately afterward: the caller's next WaitEvent will report the
// original syscall's own real POST once it finishes, as if the injected
// call had never happened. This mirrors dropping a call into the
// instruction stream and stepping past it, the way gVisor's ptrace
// platform splices SYS_CLONE into its stub threads.
func (s *Session) InjectSyscall(tr *Tracee, nr uint64, args arch.SixArgs) (int64, error) {
	if !tr.IsEntry() {
		return 0, newErr(KindProtocolViolation, "InjectSyscall", tr.pid, ErrWrongState)
	}

	if err := s.beginInject(tr, nr, args, false, false); err != nil {
		return 0, err
	}

	if err := s.drainInjection(tr); err != nil {
		return 0, err
	}

	tr.inject.ready = false
	return tr.inject.result, tr.inject.resultErr
}

// PreStart begins an asynchronous PRE-phase injection without blocking.
// The result becomes available through PreEnd once the engine has
// observed the injected call's exit stop and then the re-run original
// syscall's own POST.
func (s *Session) PreStart(tr *Tracee, nr uint64, args arch.SixArgs) error {
	if !tr.IsEntry() {
		return newErr(KindProtocolViolation, "PreStart", tr.pid, ErrWrongState)
	}
	return s.beginInject(tr, nr, args, true, false)
}

// PreEnd retrieves the result of a PreStart injection once it is ready.
// ok is false if the injected call has not completed yet.
func (s *Session) PreEnd(tr *Tracee) (result int64, ok bool, err error) {
	if tr.inject.phase != injectNone || !tr.inject.ready {
		return 0, false, nil
	}
	result, err = tr.inject.result, tr.inject.resultErr
	tr.inject.ready = false
	return result, true, err
}

// PostStart begins an asynchronous POST-phase injection: the tracee's
// own syscall has already completed, so no re-run dance is needed, only
// a single injected round trip before the tracee's real return value is
// restored.
func (s *Session) PostStart(tr *Tracee, nr uint64, args arch.SixArgs) error {
	if tr.IsEntry() {
		return newErr(KindProtocolViolation, "PostStart", tr.pid, ErrWrongState)
	}
	return s.beginInject(tr, nr, args, true, true)
}

// PostEnd retrieves the result of a PostStart injection.
func (s *Session) PostEnd(tr *Tracee) (result int64, ok bool, err error) {
	return s.PreEnd(tr)
}

// DenySyscall fails tr's in-flight syscall without letting it reach the
// kernel at all. The next event reported for tr is synthesized as a
// POST stop with Return == -EPERM; the kernel's actual register state
// for that stop is never consulted.
func (s *Session) DenySyscall(tr *Tracee) error {
	if !tr.IsEntry() {
		return newErr(KindProtocolViolation, "DenySyscall", tr.pid, ErrWrongState)
	}

	var raw syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "DenySyscall", tr.pid, err)
	}
	regs := arch.New(&raw)

	tr.deniedNr = regs.Syscall()
	regs.SetSyscall(^uint64(0))
	if err := syscall.PtraceSetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "DenySyscall", tr.pid, err)
	}
	tr.state = stateDeniedPreWaitingPost
	if err := syscall.PtraceSyscall(tr.pid, 0); err != nil {
		return newErr(KindKernelRefused, "DenySyscall", tr.pid, err)
	}
	return nil
}

// ModifySyscall overwrites the syscall number (if changeNr) and/or the
// given argument registers of tr's in-flight syscall, leaving it to run
// with the new values.
func (s *Session) ModifySyscall(tr *Tracee, changeNr bool, nr uint64, setArgs map[int]uint64) error {
	if !tr.IsEntry() {
		return newErr(KindProtocolViolation, "ModifySyscall", tr.pid, ErrWrongState)
	}

	var raw syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "ModifySyscall", tr.pid, err)
	}
	regs := arch.New(&raw)

	if changeNr {
		regs.SetSyscall(nr)
	}
	for i, v := range setArgs {
		regs.SetArg(i, v)
	}
	if err := syscall.PtraceSetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "ModifySyscall", tr.pid, err)
	}
	return nil
}

// Mmap is a supplemented convenience wrapper over InjectSyscall for the
// common case of giving a tracee a new memory mapping on its own behalf
// (e.g. to stage arguments for a later injected call).
func (s *Session) Mmap(tr *Tracee, length, prot, flags uint64) (uint64, error) {
	ret, err := s.InjectSyscall(tr, arch.Current.MmapNr, arch.SixArgs{0, length, prot, flags, ^uint64(0), 0})
	return uint64(ret), err
}

// Munmap is the inverse of Mmap.
func (s *Session) Munmap(tr *Tracee, addr, length uint64) error {
	_, err := s.InjectSyscall(tr, arch.Current.MunmapNr, arch.SixArgs{addr, length, 0, 0, 0, 0})
	return err
}

func (s *Session) beginInject(tr *Tracee, nr uint64, args arch.SixArgs, async, postPhase bool) error {
	var raw syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "InjectSyscall", tr.pid, err)
	}

	tr.inject = injectRecord{
		phase:     injectAwaitingInjectedExit,
		async:     async,
		postPhase: postPhase,
		saved:     raw,
	}

	regs := arch.New(&raw)
	regs.SetSyscall(nr)
	for i := 0; i < 6; i++ {
		regs.SetArg(i, args[i])
	}
	if err := syscall.PtraceSetRegs(tr.pid, &raw); err != nil {
		return newErr(KindKernelRefused, "InjectSyscall", tr.pid, err)
	}

	if postPhase {
		tr.state = stateInjectingPost
	} else {
		tr.state = stateInjectingPre
	}

	if err := syscall.PtraceSyscall(tr.pid, 0); err != nil {
		return newErr(KindKernelRefused, "InjectSyscall", tr.pid, err)
	}
	return nil
}

// drainInjection blocks on s's internal wait loop until tr's injection
// record is fully resolved (used only by the synchronous InjectSyscall;
// the async variants let the ordinary WaitEvent loop drive this instead).
func (s *Session) drainInjection(tr *Tracee) error {
	for tr.inject.phase != injectNone {
		if err := s.stepInternal(); err != nil {
			return err
		}
	}
	return nil
}

// advanceInjection is called by loop.go for every stop belonging to a
// tracee with an in-flight injection. It returns true if it consumed
// the stop (loop.go should resume and keep looping without surfacing
// anything to the controller), false if the stop is the tracee's real
// POST and should be handled normally.
func (s *Session) advanceInjection(tr *Tracee, raw *syscall.PtraceRegs) (consumed bool) {
	regs := arch.New(raw)

	switch tr.inject.phase {
	case injectAwaitingInjectedExit:
		tr.inject.result = regs.Return()

		// restore the tracee's own registers and rewind IP back onto
		// the syscall instruction so the kernel re-executes it
		saved := tr.inject.saved
		if err := syscall.PtraceSetRegs(tr.pid, &saved); err != nil {
			tr.inject.resultErr = newErr(KindKernelRefused, "InjectSyscall", tr.pid, err)
			tr.inject.phase = injectNone
			tr.inject.ready = true
			return true
		}

		if tr.inject.postPhase {
			// no original re-run needed: the real syscall already ran
			// before injection started, so the restored registers are
			// already the tracee's true POST state.
			tr.inject.phase = injectNone
			tr.inject.ready = true
			tr.state = stateIdlePost
			syscall.PtraceSyscall(tr.pid, 0)
			return true
		}

		savedRegs := arch.New(&saved)
		savedRegs.SetIP(savedRegs.IP() - arch.Current.SyscallInstrWidth)
		syscall.PtraceSetRegs(tr.pid, &saved)

		tr.inject.phase = injectAwaitingOriginalEntry
		syscall.PtraceSyscall(tr.pid, 0)
		return true

	case injectAwaitingOriginalEntry:
		// the regenerated PRE of the original syscall: swallow silently
		tr.inject.phase = injectAwaitingOriginalExit
		syscall.PtraceSyscall(tr.pid, 0)
		return true

	case injectAwaitingOriginalExit:
		tr.inject.phase = injectNone
		tr.inject.ready = true
		tr.state = stateIdlePost
		return false

	default:
		return false
	}
}
