// Package testdock is the CLI entry point.
package testdock

import (
	"errors"
	"fmt"

	"github.com/schmitthub/testdock/internal/cmd/factory"
	"github.com/schmitthub/testdock/internal/cmd/root"
	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/logger"
)

// Build-time variables injected via ldflags
var (
	Version = "dev"
	Commit  = "none"
)

const (
	exitOk    = 0
	exitError = 1
	exitUsage = 2
)

// Main is the entry point for the testdock CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	rootCmd := root.NewCmdRoot(f)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return exitOk
	}
	return exitCode(f, cmd.CommandPath(), err)
}

// exitCode renders err and maps it to a process exit status.
func exitCode(f *cmdutil.Factory, cmdPath string, err error) int {
	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, cmdutil.SilentError) {
		return exitError
	}

	ios := f.IOStreams
	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintf(ios.ErrOut, "Error: %s\n", err)
		cmdutil.PrintHelpHint(ios.ErrOut, cmdPath)
		return exitUsage
	}

	_ = ios.PrintFailure("%s", err)
	return exitError
}
