package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tracy/internal/sysnum"
	"tracy/pkg/eventlog"
	"tracy/pkg/tracer"
)

var (
	traceInteractive bool
	traceSyscalls    string
	traceLogPath     string
	traceDBPath      string
	traceFollowFork  bool
	traceDenyList    string
)

var traceCmd = &cobra.Command{
	Use:   "trace -- command [args...]",
	Short: "Trace a freshly spawned command's syscalls",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrace(args)
	},
}

func init() {
	traceCmd.Flags().BoolVarP(&traceInteractive, "interactive", "i", true, "allocate a PTY and relay stdin/stdout through it")
	traceCmd.Flags().StringVar(&traceSyscalls, "only", "", "comma-separated syscall names to log (default: all)")
	traceCmd.Flags().StringVar(&traceLogPath, "log", "", "write the syscall log to this file instead of stderr")
	traceCmd.Flags().StringVar(&traceDBPath, "db", "", "persist events to this SQLite file in addition to the text log")
	traceCmd.Flags().BoolVar(&traceFollowFork, "follow-fork", true, "follow fork/vfork/clone children")
	traceCmd.Flags().StringVar(&traceDenyList, "deny", "", "comma-separated syscall names to deny with EPERM")
	RootCmd.AddCommand(traceCmd)
}

func runTrace(command []string) error {
	resolver := sysnum.Default()

	opts := tracer.Option(0)
	if traceFollowFork {
		opts |= tracer.OptTraceChildren
	}

	var logger tracer.Logger
	if traceLogPath != "" {
		fl, err := tracer.NewFileLogger(traceLogPath, resolver)
		if err != nil {
			return fmt.Errorf("open trace log: %w", err)
		}
		defer fl.Close()
		logger = fl
	} else {
		logger = tracer.NewStreamLogger(os.Stderr, resolver)
	}

	var sqlLogger *eventlog.SQLiteLogger
	if traceDBPath != "" {
		sl, err := eventlog.Open(eventlog.DefaultConfig(traceDBPath), resolver)
		if err != nil {
			return fmt.Errorf("open event db: %w", err)
		}
		defer sl.Close()
		sqlLogger = sl
	}

	session := tracer.Init(tracer.Config{Options: opts, Resolver: resolver})
	defer session.Free()

	installDenyHooks(session, resolver)

	only := splitCSV(traceSyscalls)
	onlySet := make(map[string]bool, len(only))
	for _, s := range only {
		onlySet[s] = true
	}

	session.Hooks().SetDefaultHook(func(ev *tracer.Event) tracer.HookResult {
		if len(onlySet) > 0 && !onlySet[resolver.Name(ev.SyscallNr)] {
			return tracer.HookContinue
		}
		if ev.Entry {
			logger.LogEntry(ev)
		} else {
			logger.LogExit(ev)
		}
		if sqlLogger != nil {
			if ev.Entry {
				sqlLogger.LogEntry(ev)
			} else {
				sqlLogger.LogExit(ev)
			}
		}
		return tracer.HookContinue
	})

	if !traceInteractive {
		if _, err := session.ForkTraceExec(command[0], command[1:]); err != nil {
			return fmt.Errorf("start trace: %w", err)
		}
		return session.Main()
	}

	cmd := exec.Command(command[0], command[1:]...)
	ptmx, tty, err := pty.Open()
	if err != nil {
		return fmt.Errorf("open pty: %w", err)
	}
	defer tty.Close()
	defer ptmx.Close()

	cmd.Stdin, cmd.Stdout, cmd.Stderr = tty, tty, tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	cleanup := watchPTYSize(ptmx)
	defer cleanup()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	go io.Copy(ptmx, os.Stdin)
	go io.Copy(os.Stdout, ptmx)

	if _, err := session.TraceCmd(cmd, func() { tty.Close() }); err != nil {
		return fmt.Errorf("start trace: %w", err)
	}
	return session.Main()
}

func installDenyHooks(session *tracer.Session, resolver tracer.NameResolver) {
	blocked := make(map[uint64]bool)
	for _, name := range splitCSV(traceDenyList) {
		if nr, ok := resolver.Resolve(name); ok {
			blocked[nr] = true
		}
	}
	if len(blocked) == 0 {
		return
	}

	hook := tracer.FilterHook(session, blocked, func(ev *tracer.Event) {
		fmt.Fprintf(os.Stderr, "[TRACE] [%-5d] denied %s\n", ev.Tracee.Pid(), resolver.Name(ev.SyscallNr))
	})
	for nr := range blocked {
		session.Hooks().SetHookNr(nr, hook)
	}
}

// watchPTYSize keeps ptmx's window size in sync with the controlling
// terminal for the life of the trace.
func watchPTYSize(ptmx *os.File) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	ch <- syscall.SIGWINCH
	return func() { signal.Stop(ch) }
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
