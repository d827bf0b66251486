package factory

import (
	"sync"

	"github.com/schmitthub/testdock/internal/cmdutil"
	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/iostreams"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (internal/testdock/cmd.go).
// Tests should NOT import this package; construct &cmdutil.Factory{} directly.
func New(version, commit string) *cmdutil.Factory {
	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: iostreams.NewIOStreams(),
	}

	// ConfigPath is read on first use, after flags have been parsed.
	var (
		configOnce sync.Once
		configData *config.Config
		configErr  error
	)
	f.Config = func() (*config.Config, error) {
		configOnce.Do(func() {
			configData, configErr = config.NewLoader(f.ConfigPath).Load()
			if configErr == nil && f.Debug {
				configData.Debug = true
			}
		})
		return configData, configErr
	}

	return f
}
