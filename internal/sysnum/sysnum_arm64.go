//go:build arm64

package sysnum

import "golang.org/x/sys/unix"

// arm64's syscall table only ever grew the "at"-suffixed and 64-bit-clean
// variants; the legacy open/access/stat/fork family that amd64 still
// carries was never given arm64 numbers, so this table is deliberately a
// different shape from sysnum_amd64.go rather than a subset of it.
var defaultTable = newTable(map[string]uint64{
	"read":            unix.SYS_READ,
	"write":           unix.SYS_WRITE,
	"close":           unix.SYS_CLOSE,
	"lseek":           unix.SYS_LSEEK,
	"mmap":            unix.SYS_MMAP,
	"mprotect":        unix.SYS_MPROTECT,
	"munmap":          unix.SYS_MUNMAP,
	"brk":             unix.SYS_BRK,
	"rt_sigaction":    unix.SYS_RT_SIGACTION,
	"rt_sigprocmask":  unix.SYS_RT_SIGPROCMASK,
	"ioctl":           unix.SYS_IOCTL,
	"pread64":         unix.SYS_PREAD64,
	"pwrite64":        unix.SYS_PWRITE64,
	"readv":           unix.SYS_READV,
	"writev":          unix.SYS_WRITEV,
	"pipe2":           unix.SYS_PIPE2,
	"dup":             unix.SYS_DUP,
	"dup3":            unix.SYS_DUP3,
	"ppoll":           unix.SYS_PPOLL,
	"pselect6":        unix.SYS_PSELECT6,
	"sched_yield":     unix.SYS_SCHED_YIELD,
	"mremap":          unix.SYS_MREMAP,
	"msync":           unix.SYS_MSYNC,
	"mincore":         unix.SYS_MINCORE,
	"madvise":         unix.SYS_MADVISE,
	"nanosleep":       unix.SYS_NANOSLEEP,
	"getpid":          unix.SYS_GETPID,
	"sendfile":        unix.SYS_SENDFILE,
	"socket":          unix.SYS_SOCKET,
	"connect":         unix.SYS_CONNECT,
	"accept":          unix.SYS_ACCEPT,
	"clone":           unix.SYS_CLONE,
	"execve":          unix.SYS_EXECVE,
	"exit":            unix.SYS_EXIT,
	"wait4":           unix.SYS_WAIT4,
	"kill":            unix.SYS_KILL,
	"uname":           unix.SYS_UNAME,
	"fcntl":           unix.SYS_FCNTL,
	"getcwd":          unix.SYS_GETCWD,
	"chdir":           unix.SYS_CHDIR,
	"fchdir":          unix.SYS_FCHDIR,
	"chroot":          unix.SYS_CHROOT,
	"fchmod":          unix.SYS_FCHMOD,
	"fchown":          unix.SYS_FCHOWN,
	"getuid":          unix.SYS_GETUID,
	"getgid":          unix.SYS_GETGID,
	"geteuid":         unix.SYS_GETEUID,
	"getegid":         unix.SYS_GETEGID,
	"setuid":          unix.SYS_SETUID,
	"setgid":          unix.SYS_SETGID,
	"getppid":         unix.SYS_GETPPID,
	"setsid":          unix.SYS_SETSID,
	"getgroups":       unix.SYS_GETGROUPS,
	"setgroups":       unix.SYS_SETGROUPS,
	"mount":           unix.SYS_MOUNT,
	"umount2":         unix.SYS_UMOUNT2,
	"openat":          unix.SYS_OPENAT,
	"mkdirat":         unix.SYS_MKDIRAT,
	"mknodat":         unix.SYS_MKNODAT,
	"fchownat":        unix.SYS_FCHOWNAT,
	"unlinkat":        unix.SYS_UNLINKAT,
	"renameat":        unix.SYS_RENAMEAT,
	"renameat2":       unix.SYS_RENAMEAT2,
	"symlinkat":       unix.SYS_SYMLINKAT,
	"linkat":          unix.SYS_LINKAT,
	"readlinkat":      unix.SYS_READLINKAT,
	"fchmodat":        unix.SYS_FCHMODAT,
	"faccessat":       unix.SYS_FACCESSAT,
	"utimensat":       unix.SYS_UTIMENSAT,
	"newfstatat":      unix.SYS_NEWFSTATAT,
	"fstat":           unix.SYS_FSTAT,
	"execveat":        unix.SYS_EXECVEAT,
	"exit_group":      unix.SYS_EXIT_GROUP,
	"gettid":          unix.SYS_GETTID,
	"tgkill":          unix.SYS_TGKILL,
	"getdents64":      unix.SYS_GETDENTS64,
	"prctl":           unix.SYS_PRCTL,
	"ptrace":          unix.SYS_PTRACE,
	"set_tid_address": unix.SYS_SET_TID_ADDRESS,
	"futex":           unix.SYS_FUTEX,
	"process_vm_readv": unix.SYS_PROCESS_VM_READV,
	"process_vm_writev": unix.SYS_PROCESS_VM_WRITEV,
})
