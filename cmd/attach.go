package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"tracy/internal/sysnum"
	"tracy/pkg/tracer"
)

var attachFollowFork bool

var attachCmd = &cobra.Command{
	Use:   "attach <pid>",
	Short: "Attach to an already-running process and trace its syscalls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid pid %q: %w", args[0], err)
		}
		return runAttach(pid)
	},
}

func init() {
	attachCmd.Flags().BoolVar(&attachFollowFork, "follow-fork", true, "follow fork/vfork/clone children")
	RootCmd.AddCommand(attachCmd)
}

func runAttach(pid int) error {
	resolver := sysnum.Default()
	logger := tracer.NewStreamLogger(os.Stderr, resolver)

	opts := tracer.Option(0)
	if attachFollowFork {
		opts |= tracer.OptTraceChildren
	}

	session := tracer.Init(tracer.Config{Options: opts, Resolver: resolver, Logger: logger})
	defer session.Free()

	if _, err := session.Attach(pid); err != nil {
		return fmt.Errorf("attach to pid %d: %w", pid, err)
	}

	return session.Main()
}
