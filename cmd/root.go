package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "tracy",
	Short: "tracy: ptrace-based syscall tracing and injection",
	Long:  `A driver for the tracy ptrace engine: trace, filter, or attach to a process's syscalls.`,
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
