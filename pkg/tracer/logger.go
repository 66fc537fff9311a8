package tracer

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger logs syscall events. The engine calls LogEntry/LogExit for
// every dispatched syscall stop when a Session was built with one
// installed; it never decides on its own whether to log.
type Logger interface {
	LogEntry(ev *Event)
	LogExit(ev *Event)
}

// StreamLogger writes a strace-like line per stop to an io.Writer, using
// resolver to turn syscall numbers back into names and mem to pull
// string arguments out of the tracee for the syscalls where that makes
// the log useful.
type StreamLogger struct {
	Out      io.Writer
	Resolver NameResolver
}

// NewStreamLogger creates a new StreamLogger.
func NewStreamLogger(out io.Writer, resolver NameResolver) *StreamLogger {
	return &StreamLogger{Out: out, Resolver: resolver}
}

func (l *StreamLogger) LogEntry(ev *Event) {
	name := l.Resolver.Name(ev.SyscallNr)
	if name == "" {
		name = fmt.Sprintf("sys_%d", ev.SyscallNr)
	}

	args := ev.Args
	formatted := make([]string, len(args))
	for i, arg := range args {
		formatted[i] = fmt.Sprintf("0x%x", arg)
	}

	mem := ev.Tracee.Mem()
	readPath := func(i int) {
		if s, err := mem.ReadString(args[i], 4096); err == nil {
			formatted[i] = fmt.Sprintf("%q", s)
		}
	}
	atFd := func(i int) {
		if int32(args[i]) == -100 { // AT_FDCWD
			formatted[i] = "AT_FDCWD"
		}
	}

	switch name {
	case "open", "access", "chdir", "mkdir", "rmdir", "unlink", "chmod", "chown", "lchown", "stat", "lstat", "truncate", "readlink", "creat":
		readPath(0)
	case "openat", "mkdirat", "mknodat", "unlinkat", "fchmodat", "fchownat", "newfstatat", "readlinkat", "faccessat", "utimensat":
		atFd(0)
		readPath(1)
	case "execve", "execveat":
		readPath(0)
	case "rename", "symlink":
		readPath(0)
		readPath(1)
	case "renameat", "renameat2":
		atFd(0)
		readPath(1)
		atFd(2)
		readPath(3)
	case "symlinkat":
		readPath(0)
		atFd(1)
		readPath(2)
	case "mount":
		readPath(0)
		readPath(1)
		readPath(2)
	case "umount2":
		readPath(0)
	}

	argStr := strings.Join(formatted, ", ")
	fmt.Fprintf(l.Out, "[TRACE] [%-5d] -> %s(%s)\n", ev.Tracee.Pid(), name, argStr)
}

func (l *StreamLogger) LogExit(ev *Event) {
	name := l.Resolver.Name(ev.SyscallNr)
	if name == "" {
		name = fmt.Sprintf("sys_%d", ev.SyscallNr)
	}

	ret := ev.Return
	if ret < 0 && ret >= -4095 {
		fmt.Fprintf(l.Out, "[TRACE] [%-5d] <- %s = -1 (errno=%d)\n", ev.Tracee.Pid(), name, -ret)
		return
	}

	switch name {
	case "mmap", "brk":
		fmt.Fprintf(l.Out, "[TRACE] [%-5d] <- %s = 0x%x\n", ev.Tracee.Pid(), name, ret)
	default:
		fmt.Fprintf(l.Out, "[TRACE] [%-5d] <- %s = %d\n", ev.Tracee.Pid(), name, ret)
	}
}

// multiLogger fans a single event out to several Loggers, used by
// OptVerbose to add a stderr StreamLogger alongside whatever Logger the
// caller already configured rather than replacing it.
type multiLogger struct {
	loggers []Logger
}

func (m *multiLogger) LogEntry(ev *Event) {
	for _, l := range m.loggers {
		l.LogEntry(ev)
	}
}

func (m *multiLogger) LogExit(ev *Event) {
	for _, l := range m.loggers {
		l.LogExit(ev)
	}
}

// FileLogger writes a StreamLogger's output to a file.
type FileLogger struct {
	*StreamLogger
	file *os.File
}

// NewFileLogger opens path (creating/appending) and wraps it in a StreamLogger.
func NewFileLogger(path string, resolver NameResolver) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		StreamLogger: NewStreamLogger(f, resolver),
		file:         f,
	}, nil
}

func (l *FileLogger) Close() error {
	return l.file.Close()
}
