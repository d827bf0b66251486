package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/schmitthub/testdock/internal/health"
	"github.com/schmitthub/testdock/internal/options"
)

// Loader handles loading and parsing of testdock configuration
type Loader struct {
	path     string
	explicit bool
	viper    *viper.Viper
}

// NewLoader creates a loader for path. An empty path means ConfigFileName in
// the working directory, which may be absent.
func NewLoader(path string) *Loader {
	l := &Loader{path: path, explicit: path != "", viper: viper.New()}
	if path == "" {
		l.path = ConfigFileName
	}
	return l
}

// Path returns the config file the loader reads.
func (l *Loader) Path() string { return l.path }

// Load reads the config file (if any), applies TESTDOCK_* environment
// overrides and decodes the result.
func (l *Loader) Load() (*Config, error) {
	v := l.viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("docker_logs", defaults.DockerLogs)
	v.SetDefault("log_to_stdout", defaults.LogToStdout)
	v.SetDefault("runtime.binary", defaults.Runtime.Binary)
	v.SetDefault("runtime.api", defaults.Runtime.API)
	v.SetDefault("runtime.stop_timeout", defaults.Runtime.StopTimeout.String())
	v.SetDefault("docker_options.image", "")
	v.SetDefault("docker_options.command", "")
	v.SetDefault("docker_options.args", "")
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_age_days", defaults.Logging.MaxAgeDays)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	// Known to viper without a default so a file-level mapping is not shadowed.
	_ = v.BindEnv("docker_options.health_check")
	_ = v.BindEnv("logging.file_enabled")

	fileFound := false
	if _, err := os.Stat(l.path); err == nil {
		fileFound = true
	} else if l.explicit {
		return nil, &ConfigNotFoundError{Path: l.path}
	}

	if fileFound {
		v.SetConfigFile(l.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		healthCheckHookFunc(),
		millisecondsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if fileFound {
		// Viper lowercases keys; option keys are flag names (shmSize) and
		// must keep their case.
		if err := fixOptionKeyCase(&cfg, l.path); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return &cfg, nil
}

// fixOptionKeyCase re-reads docker_options.options from the YAML file with its
// original key case.
func fixOptionKeyCase(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw struct {
		DockerOptions struct {
			Options map[string]any `yaml:"options"`
		} `yaml:"docker_options"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.DockerOptions.Options != nil {
		cfg.DockerOptions.Options = options.Options(raw.DockerOptions.Options)
	}
	return nil
}

// healthCheckHookFunc accepts a bare URL wherever a health target is expected.
func healthCheckHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(health.Target{}) {
			return data, nil
		}
		return health.Target{URL: data.(string)}, nil
	}
}

// millisecondsHookFunc reads bare numbers as milliseconds when decoding a
// duration, matching the inspect_interval style of `inspect_interval: 500`.
func millisecondsHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) || f == t {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Millisecond, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Millisecond)), nil
		default:
			return data, nil
		}
	}
}

// ConfigNotFoundError is returned when an explicitly requested config file
// doesn't exist
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError
func IsConfigNotFound(err error) bool {
	var notFound *ConfigNotFoundError
	return errors.As(err, &notFound)
}
