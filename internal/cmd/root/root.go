package root

import (
	"github.com/spf13/cobra"

	argscmd "github.com/schmitthub/testdock/internal/cmd/args"
	runcmd "github.com/schmitthub/testdock/internal/cmd/run"
	versioncmd "github.com/schmitthub/testdock/internal/cmd/version"
	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/logger"
)

// NewCmdRoot creates the root command for the testdock CLI.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testdock",
		Short: "Run a Docker container for the duration of a test run",
		Long: `Testdock starts a container before your tests, waits until it is healthy,
and removes it when the tests finish, however they finish.

Quick start:
  testdock run --image nginx -o p=8080:80 --health-check http://localhost:8080 -- go test ./...
  testdock args --image nginx -o p=8080:80   # print the docker run command`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("testdock starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to the config file (default ./"+config.ConfigFileName+")")

	cmd.SetVersionTemplate(versioncmd.Format(f.Version, f.Commit))
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cmdutil.FlagErrorWrap(err)
	})

	cmd.AddCommand(runcmd.NewCmdRun(f, nil))
	cmd.AddCommand(argscmd.NewCmdArgs(f, nil))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up the logger with file logging if possible.
// Falls back to console-only logging on any errors.
func initializeLogger(f *cmdutil.Factory) {
	cfg, err := f.Config()
	if err != nil {
		logger.Init(f.Debug)
		logger.Debug().Err(err).Msg("file logging unavailable: failed to load config")
		return
	}

	if err := logger.InitWithFile(cfg.Debug, config.LogsDir(), cfg.LoggerConfig()); err != nil {
		logger.Init(cfg.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
