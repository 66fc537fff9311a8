//go:build amd64

package sysnum

import "golang.org/x/sys/unix"

var defaultTable = newTable(map[string]uint64{
	"read":         unix.SYS_READ,
	"write":        unix.SYS_WRITE,
	"open":         unix.SYS_OPEN,
	"close":        unix.SYS_CLOSE,
	"stat":         unix.SYS_STAT,
	"fstat":        unix.SYS_FSTAT,
	"lstat":        unix.SYS_LSTAT,
	"poll":         unix.SYS_POLL,
	"lseek":        unix.SYS_LSEEK,
	"mmap":         unix.SYS_MMAP,
	"mprotect":     unix.SYS_MPROTECT,
	"munmap":       unix.SYS_MUNMAP,
	"brk":          unix.SYS_BRK,
	"rt_sigaction": unix.SYS_RT_SIGACTION,
	"ioctl":        unix.SYS_IOCTL,
	"pread64":      unix.SYS_PREAD64,
	"pwrite64":     unix.SYS_PWRITE64,
	"readv":        unix.SYS_READV,
	"writev":       unix.SYS_WRITEV,
	"access":       unix.SYS_ACCESS,
	"pipe":         unix.SYS_PIPE,
	"select":       unix.SYS_SELECT,
	"sched_yield":  unix.SYS_SCHED_YIELD,
	"mremap":       unix.SYS_MREMAP,
	"msync":        unix.SYS_MSYNC,
	"mincore":      unix.SYS_MINCORE,
	"madvise":      unix.SYS_MADVISE,
	"dup":          unix.SYS_DUP,
	"dup2":         unix.SYS_DUP2,
	"pause":        unix.SYS_PAUSE,
	"nanosleep":    unix.SYS_NANOSLEEP,
	"getpid":       unix.SYS_GETPID,
	"sendfile":     unix.SYS_SENDFILE,
	"socket":       unix.SYS_SOCKET,
	"connect":      unix.SYS_CONNECT,
	"accept":       unix.SYS_ACCEPT,
	"clone":        unix.SYS_CLONE,
	"fork":         unix.SYS_FORK,
	"vfork":        unix.SYS_VFORK,
	"execve":       unix.SYS_EXECVE,
	"exit":         unix.SYS_EXIT,
	"wait4":        unix.SYS_WAIT4,
	"kill":         unix.SYS_KILL,
	"uname":        unix.SYS_UNAME,
	"fcntl":        unix.SYS_FCNTL,
	"getcwd":       unix.SYS_GETCWD,
	"chdir":        unix.SYS_CHDIR,
	"rename":       unix.SYS_RENAME,
	"mkdir":        unix.SYS_MKDIR,
	"rmdir":        unix.SYS_RMDIR,
	"unlink":       unix.SYS_UNLINK,
	"symlink":      unix.SYS_SYMLINK,
	"readlink":     unix.SYS_READLINK,
	"chmod":        unix.SYS_CHMOD,
	"chown":        unix.SYS_CHOWN,
	"lchown":       unix.SYS_LCHOWN,
	"getuid":       unix.SYS_GETUID,
	"getgid":       unix.SYS_GETGID,
	"geteuid":      unix.SYS_GETEUID,
	"getegid":      unix.SYS_GETEGID,
	"setuid":       unix.SYS_SETUID,
	"setgid":       unix.SYS_SETGID,
	"getppid":      unix.SYS_GETPPID,
	"setsid":       unix.SYS_SETSID,
	"getgroups":    unix.SYS_GETGROUPS,
	"setgroups":    unix.SYS_SETGROUPS,
	"mount":        unix.SYS_MOUNT,
	"umount2":      unix.SYS_UMOUNT2,
	"creat":        unix.SYS_CREAT,
	"openat":       unix.SYS_OPENAT,
	"mkdirat":      unix.SYS_MKDIRAT,
	"mknodat":      unix.SYS_MKNODAT,
	"fchownat":     unix.SYS_FCHOWNAT,
	"unlinkat":     unix.SYS_UNLINKAT,
	"renameat":     unix.SYS_RENAMEAT,
	"renameat2":    unix.SYS_RENAMEAT2,
	"symlinkat":    unix.SYS_SYMLINKAT,
	"readlinkat":   unix.SYS_READLINKAT,
	"fchmodat":     unix.SYS_FCHMODAT,
	"faccessat":    unix.SYS_FACCESSAT,
	"utimensat":    unix.SYS_UTIMENSAT,
	"newfstatat":   unix.SYS_NEWFSTATAT,
	"execveat":     unix.SYS_EXECVEAT,
	"exit_group":   unix.SYS_EXIT_GROUP,
	"gettid":       unix.SYS_GETTID,
	"tgkill":       unix.SYS_TGKILL,
	"getdents64":   unix.SYS_GETDENTS64,
	"prctl":        unix.SYS_PRCTL,
	"arch_prctl":   unix.SYS_ARCH_PRCTL,
})
