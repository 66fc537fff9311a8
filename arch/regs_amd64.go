//go:build amd64

package arch

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func init() {
	New = newAMD64
	Current = Info{
		Name:              "amd64",
		SyscallInstrWidth: 2, // `syscall` opcode: 0f 05
		MmapNr:            unix.SYS_MMAP,
		MunmapNr:          unix.SYS_MUNMAP,
		ForkNr:            unix.SYS_FORK,
		VforkNr:           unix.SYS_VFORK,
		CloneNr:           unix.SYS_CLONE,
	}
}

type amd64Regs struct {
	raw *syscall.PtraceRegs
}

func newAMD64(raw *syscall.PtraceRegs) Registers {
	return &amd64Regs{raw: raw}
}

func (r *amd64Regs) Syscall() uint64     { return r.raw.Orig_rax }
func (r *amd64Regs) SetSyscall(nr uint64) { r.raw.Orig_rax = nr }

func (r *amd64Regs) Arg(i int) uint64 {
	switch i {
	case 0:
		return r.raw.Rdi
	case 1:
		return r.raw.Rsi
	case 2:
		return r.raw.Rdx
	case 3:
		return r.raw.R10
	case 4:
		return r.raw.R8
	case 5:
		return r.raw.R9
	default:
		return 0
	}
}

func (r *amd64Regs) SetArg(i int, v uint64) {
	switch i {
	case 0:
		r.raw.Rdi = v
	case 1:
		r.raw.Rsi = v
	case 2:
		r.raw.Rdx = v
	case 3:
		r.raw.R10 = v
	case 4:
		r.raw.R8 = v
	case 5:
		r.raw.R9 = v
	}
}

func (r *amd64Regs) Args() [6]uint64 {
	return [6]uint64{r.raw.Rdi, r.raw.Rsi, r.raw.Rdx, r.raw.R10, r.raw.R8, r.raw.R9}
}

func (r *amd64Regs) Return() int64      { return int64(r.raw.Rax) }
func (r *amd64Regs) SetReturn(v int64)  { r.raw.Rax = uint64(v) }
func (r *amd64Regs) IP() uint64         { return r.raw.Rip }
func (r *amd64Regs) SetIP(v uint64)     { r.raw.Rip = v }
func (r *amd64Regs) SP() uint64         { return r.raw.Rsp }
