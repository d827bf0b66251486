// Package run provides the run command: start a container, run the tests,
// tear the container down.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schmitthub/testdock/internal/cmd/opts"
	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/iostreams"
	"github.com/schmitthub/testdock/internal/launcher"
	"github.com/schmitthub/testdock/internal/logger"
	"github.com/schmitthub/testdock/internal/signals"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)

	Container *opts.ContainerOptions
	Flags     *pflag.FlagSet

	// TestCommand is everything after the flags, usually after `--`.
	TestCommand []string
}

// NewCmdRun creates the run command.
func NewCmdRun(f *cmdutil.Factory, runF func(context.Context, *RunOptions) error) *cobra.Command {
	o := &RunOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Container: opts.NewContainerOptions(),
	}

	cmd := &cobra.Command{
		Use:   "run [flags] [-- COMMAND [ARG...]]",
		Short: "Run a command while a container is up",
		Long: `Start the configured container and wait until it is healthy, then run
COMMAND with the terminal's stdin, stdout and stderr. The container is removed
when COMMAND exits and testdock exits with COMMAND's status.

Without COMMAND the container stays up until testdock receives SIGINT or
SIGTERM.`,
		Example: `  # Run integration tests against nginx
  testdock run --image nginx -o p=8080:80 --health-check http://localhost:8080 -- go test ./...

  # Keep a container up until Ctrl+C, logging its output
  testdock run --image redis -o p=6379:6379 --docker-logs ./logs`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Flags = cmd.Flags()
			o.TestCommand = args
			if runF != nil {
				return runF(cmd.Context(), o)
			}
			return runRun(cmd.Context(), o)
		},
	}

	// Everything after the first positional argument belongs to the test
	// command, so `testdock run go test -v` leaves -v alone.
	cmd.Flags().SetInterspersed(false)
	opts.AddFlags(cmd.Flags(), o.Container)

	return cmd
}

func runRun(ctx context.Context, o *RunOptions) error {
	ios := o.IOStreams

	cfg, err := o.Config()
	if err != nil {
		return err
	}
	o.Container.Apply(o.Flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	containerOpts, closeRemover, err := cfg.ContainerOptions()
	if err != nil {
		return fmt.Errorf("connecting to the Engine API: %w", err)
	}
	defer closeRemover()

	spec := cfg.Spec()
	logger.SetContext(spec.Image, "")
	defer logger.ClearContext()

	l := &launcher.Launcher{
		Spec:       spec,
		DockerLogs: cfg.DockerLogs,
		Options:    containerOpts,
		OnDockerReady: func() {
			_ = ios.PrintSuccess("container %s is ready", spec.Image)
		},
	}
	if cfg.LogToStdout {
		l.LogToStdout = ios.Out
	}

	sigCtx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	// Teardown must outlive a cancelled run.
	defer l.OnComplete(context.WithoutCancel(ctx))

	if err := l.OnPrepare(sigCtx); err != nil {
		return fmt.Errorf("starting %s: %w", spec.Image, err)
	}

	if len(o.TestCommand) == 0 {
		_ = ios.PrintInfo("container running, press Ctrl+C to stop")
		<-sigCtx.Done()
		return nil
	}

	return runTestCommand(ios, o.TestCommand)
}

// runTestCommand runs argv in the foreground and relays shutdown signals to
// it. A non-zero exit comes back as *cmdutil.ExitError.
func runTestCommand(ios *iostreams.IOStreams, argv []string) error {
	c := exec.Command(argv[0], argv[1:]...)
	c.Stdin = ios.In
	c.Stdout = ios.Out
	c.Stderr = ios.ErrOut
	c.Env = os.Environ()

	logger.Debug().Strs("argv", argv).Msg("starting test command")
	if err := c.Start(); err != nil {
		return fmt.Errorf("starting test command: %w", err)
	}

	stop := signals.Forward(c.Process.Signal)
	err := c.Wait()
	stop()

	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		logger.Debug().Int("exit_code", code).Msg("test command failed")
		return &cmdutil.ExitError{Code: code}
	}
	return fmt.Errorf("test command: %w", err)
}
