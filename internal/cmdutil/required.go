package cmdutil

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NoArgs validates args and returns an error if there are any args
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return FlagErrorf(
		"%[1]s: '%[2]s' accepts no arguments\n\nUsage:  %[3]s",
		cmd.Root().Name(),
		cmd.CommandPath(),
		cmd.UseLine(),
	)
}

// PrintHelpHint prints a contextual help hint to w.
// cmdPath should be cmd.CommandPath() (e.g., "testdock run")
func PrintHelpHint(w io.Writer, cmdPath string) {
	fmt.Fprintf(w, "\nRun '%s --help' for more information.\n", cmdPath)
}
