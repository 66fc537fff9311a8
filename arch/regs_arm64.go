//go:build arm64

package arch

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func init() {
	New = newARM64
	Current = Info{
		Name:              "arm64",
		SyscallInstrWidth: 4, // `svc #0` is a 4-byte instruction
		MmapNr:            unix.SYS_MMAP,
		MunmapNr:          unix.SYS_MUNMAP,
		// arm64 libc implements fork()/vfork() on top of clone(2); there
		// is no separate syscall number for either.
		ForkNr:  NoSyscall,
		VforkNr: NoSyscall,
		CloneNr: unix.SYS_CLONE,
	}
}

type arm64Regs struct {
	raw *syscall.PtraceRegs
}

func newARM64(raw *syscall.PtraceRegs) Registers {
	return &arm64Regs{raw: raw}
}

// On arm64 the syscall number lives in x8 and is not separately mirrored
// the way amd64 keeps Orig_rax distinct from Rax; the kernel leaves
// Regs[8] alone across the stop so there's no separate "orig" slot.
func (r *arm64Regs) Syscall() uint64      { return r.raw.Regs[8] }
func (r *arm64Regs) SetSyscall(nr uint64) { r.raw.Regs[8] = nr }

func (r *arm64Regs) Arg(i int) uint64 {
	if i < 0 || i >= 6 {
		return 0
	}
	return r.raw.Regs[i]
}

func (r *arm64Regs) SetArg(i int, v uint64) {
	if i < 0 || i >= 6 {
		return
	}
	r.raw.Regs[i] = v
}

func (r *arm64Regs) Args() [6]uint64 {
	var args [6]uint64
	copy(args[:], r.raw.Regs[:6])
	return args
}

func (r *arm64Regs) Return() int64     { return int64(r.raw.Regs[0]) }
func (r *arm64Regs) SetReturn(v int64) { r.raw.Regs[0] = uint64(v) }
func (r *arm64Regs) IP() uint64        { return r.raw.Pc }
func (r *arm64Regs) SetIP(v uint64)    { r.raw.Pc = v }
func (r *arm64Regs) SP() uint64        { return r.raw.Sp }
