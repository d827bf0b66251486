// Package args provides the args command, a dry run of `docker run`.
package args

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schmitthub/testdock/internal/cmd/opts"
	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/docker"
	"github.com/schmitthub/testdock/internal/iostreams"
)

// ArgsOptions holds options for the args command.
type ArgsOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)

	Container *opts.ContainerOptions
	Flags     *pflag.FlagSet
}

// NewCmdArgs creates the args command.
func NewCmdArgs(f *cmdutil.Factory, runF func(context.Context, *ArgsOptions) error) *cobra.Command {
	o := &ArgsOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Container: opts.NewContainerOptions(),
	}

	cmd := &cobra.Command{
		Use:   "args [flags]",
		Short: "Print the container command line without running it",
		Example: `  # Show what testdock run would execute
  testdock args --image nginx -o p=8080:80 -o shmSize=2g`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.Flags = cmd.Flags()
			if runF != nil {
				return runF(cmd.Context(), o)
			}
			return argsRun(cmd.Context(), o)
		},
	}

	opts.AddFlags(cmd.Flags(), o.Container)

	return cmd
}

func argsRun(_ context.Context, o *ArgsOptions) error {
	cfg, err := o.Config()
	if err != nil {
		return err
	}
	o.Container.Apply(o.Flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	c := docker.New(cfg.Spec(), docker.WithRuntime(cfg.Runtime.Binary))
	argv, err := c.Args()
	if err != nil {
		return err
	}

	fmt.Fprintln(o.IOStreams.Out, FormatCommandLine(append([]string{c.Runtime()}, argv...)))
	return nil
}

// FormatCommandLine joins argv into a line a POSIX shell would split back
// into the same words.
func FormatCommandLine(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
