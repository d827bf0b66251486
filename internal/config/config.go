// Package config loads testdock.yaml and the TESTDOCK_* environment into a
// Config and turns it into a container spec.
package config

import (
	"time"

	"github.com/schmitthub/testdock/internal/docker"
	"github.com/schmitthub/testdock/internal/health"
	"github.com/schmitthub/testdock/internal/logger"
	"github.com/schmitthub/testdock/internal/options"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "testdock.yaml"
	// EnvPrefix prefixes every environment override, e.g. TESTDOCK_DEBUG.
	EnvPrefix = "TESTDOCK"
)

// Config is the complete testdock configuration.
type Config struct {
	Debug         bool          `mapstructure:"debug"`
	DockerLogs    string        `mapstructure:"docker_logs"`
	LogToStdout   bool          `mapstructure:"log_to_stdout"`
	Runtime       RuntimeConfig `mapstructure:"runtime"`
	DockerOptions DockerOptions `mapstructure:"docker_options"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// RuntimeConfig selects and tunes the container runtime.
type RuntimeConfig struct {
	Binary string `mapstructure:"binary"`
	// API removes containers through the Engine API instead of `<binary> rm -f`.
	API         bool          `mapstructure:"api"`
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// DockerOptions describes the container to run.
type DockerOptions struct {
	Image       string          `mapstructure:"image"`
	Command     string          `mapstructure:"command"`
	Args        string          `mapstructure:"args"`
	Options     options.Options `mapstructure:"options"`
	HealthCheck *health.Target  `mapstructure:"health_check"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	FileEnabled *bool `mapstructure:"file_enabled"`
	MaxSizeMB   int   `mapstructure:"max_size_mb"`
	MaxAgeDays  int   `mapstructure:"max_age_days"`
	MaxBackups  int   `mapstructure:"max_backups"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Binary:      docker.DefaultRuntime,
			StopTimeout: docker.DefaultStopTimeout,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  50,
			MaxAgeDays: 7,
			MaxBackups: 3,
		},
	}
}

// Spec converts the docker options to a container spec.
func (c *Config) Spec() docker.Spec {
	return docker.Spec{
		Image:       c.DockerOptions.Image,
		Command:     c.DockerOptions.Command,
		Args:        c.DockerOptions.Args,
		Options:     options.Clone(c.DockerOptions.Options),
		HealthCheck: c.DockerOptions.healthTarget(),
		Debug:       c.Debug,
	}
}

// healthTarget returns nil when no health check is configured.
func (d *DockerOptions) healthTarget() *health.Target {
	if d.HealthCheck == nil || (d.HealthCheck.URL == "" && d.HealthCheck.Probe == nil) {
		return nil
	}
	t := *d.HealthCheck
	return &t
}

// LoggerConfig converts the logging section for logger.InitWithFile.
func (c *Config) LoggerConfig() *logger.LoggingConfig {
	return &logger.LoggingConfig{
		FileEnabled: c.Logging.FileEnabled,
		MaxSizeMB:   c.Logging.MaxSizeMB,
		MaxAgeDays:  c.Logging.MaxAgeDays,
		MaxBackups:  c.Logging.MaxBackups,
	}
}

// ContainerOptions returns the docker.New options selected by the runtime
// section. The returned close function releases any Engine API connection.
func (c *Config) ContainerOptions() ([]docker.Option, func(), error) {
	opts := []docker.Option{
		docker.WithRuntime(c.Runtime.Binary),
		docker.WithStopTimeout(c.Runtime.StopTimeout),
	}
	if !c.Runtime.API {
		return opts, func() {}, nil
	}

	remover, err := docker.NewAPIRemover()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, docker.WithRemover(remover))
	return opts, func() { _ = remover.Close() }, nil
}
