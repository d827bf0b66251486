// Package opts holds the container flags shared by run and args.
package opts

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/health"
	"github.com/schmitthub/testdock/internal/options"
)

// ContainerOptions holds the container flags. Only flags the user set
// override the loaded configuration.
type ContainerOptions struct {
	Image       string
	Command     string
	Args        string
	HealthCheck string
	DockerLogs  string
	LogToStdout bool
	API         bool
	Options     *OptionOpts
}

// NewContainerOptions returns empty container options.
func NewContainerOptions() *ContainerOptions {
	return &ContainerOptions{Options: NewOptionOpts()}
}

// AddFlags registers the container flags on flags.
func AddFlags(flags *pflag.FlagSet, opts *ContainerOptions) {
	flags.StringVar(&opts.Image, "image", "", "Image to run (docker_options.image)")
	flags.StringVar(&opts.Command, "command", "", "Command to run in the container, shell-split")
	flags.StringVar(&opts.Args, "args", "", "Raw runtime flags inserted before the image, shell-split")
	flags.VarP(opts.Options, "option", "o", "Runtime option as key=value; repeat a key for a list (e.g. -o p=8080:80 -o shmSize=2g)")
	flags.StringVar(&opts.HealthCheck, "health-check", "", "URL polled until the container answers")
	flags.StringVar(&opts.DockerLogs, "docker-logs", "", "File or directory receiving the container's output")
	flags.BoolVar(&opts.LogToStdout, "log-to-stdout", false, "Also copy the container's output to stdout")
	flags.BoolVar(&opts.API, "api", false, "Remove the container through the Engine API")
}

// Apply overlays the flags that were set on flags onto cfg.
func (o *ContainerOptions) Apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("image") {
		cfg.DockerOptions.Image = o.Image
	}
	if flags.Changed("command") {
		cfg.DockerOptions.Command = o.Command
	}
	if flags.Changed("args") {
		cfg.DockerOptions.Args = o.Args
	}
	if flags.Changed("health-check") {
		if cfg.DockerOptions.HealthCheck == nil {
			cfg.DockerOptions.HealthCheck = health.URLTarget(o.HealthCheck)
		} else {
			t := *cfg.DockerOptions.HealthCheck
			t.URL = o.HealthCheck
			cfg.DockerOptions.HealthCheck = &t
		}
	}
	if flags.Changed("docker-logs") {
		cfg.DockerLogs = o.DockerLogs
	}
	if flags.Changed("log-to-stdout") {
		cfg.LogToStdout = o.LogToStdout
	}
	if flags.Changed("api") {
		cfg.Runtime.API = o.API
	}
	if o.Options.Len() > 0 {
		merged := options.Clone(cfg.DockerOptions.Options)
		if merged == nil {
			merged = options.Options{}
		}
		for k, v := range o.Options.GetAll() {
			merged[k] = v
		}
		cfg.DockerOptions.Options = merged
	}
}

// OptionOpts collects -o key=value flags. A key given more than once becomes
// a list; a bare key is a boolean switch. Implements pflag.Value.
type OptionOpts struct {
	values options.Options
	order  []string
}

// NewOptionOpts creates an empty OptionOpts.
func NewOptionOpts() *OptionOpts {
	return &OptionOpts{values: options.Options{}}
}

// String returns a string representation of the collected options.
func (o *OptionOpts) String() string {
	if len(o.order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(o.order))
	for _, k := range o.order {
		parts = append(parts, fmt.Sprintf("%s=%v", k, o.values[k]))
	}
	return strings.Join(parts, ",")
}

// Set parses a key=value string and adds it to the options.
func (o *OptionOpts) Set(value string) error {
	if o.values == nil {
		o.values = options.Options{}
	}

	k, v, hasValue := strings.Cut(value, "=")
	k = strings.TrimSpace(k)
	if k == "" {
		return fmt.Errorf("invalid option %q: expected key=value", value)
	}

	var parsed any = true
	if hasValue {
		parsed = parseValue(v)
	}

	existing, ok := o.values[k]
	if !ok {
		o.values[k] = parsed
		o.order = append(o.order, k)
		return nil
	}
	if list, isList := existing.([]any); isList {
		o.values[k] = append(list, parsed)
	} else {
		o.values[k] = []any{existing, parsed}
	}
	return nil
}

// Type returns the type string for pflag.
func (o *OptionOpts) Type() string {
	return "key=value"
}

// GetAll returns the collected options.
func (o *OptionOpts) GetAll() options.Options {
	return o.values
}

// Len returns the number of distinct keys.
func (o *OptionOpts) Len() int {
	return len(o.values)
}

// parseValue keeps values as strings except true/false, so -o rm=false turns
// off a default switch.
func parseValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	default:
		return v
	}
}
