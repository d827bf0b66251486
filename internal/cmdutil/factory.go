package cmdutil

import (
	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// The struct defines what dependencies exist; internal/cmd/factory wires the
// real implementations. Tests construct &cmdutil.Factory{} directly.
type Factory struct {
	// Configuration from flags (set before command execution)
	ConfigPath string
	Debug      bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	IOStreams *iostreams.IOStreams

	// Config loads testdock.yaml and the environment once per process.
	Config func() (*config.Config, error)
}
