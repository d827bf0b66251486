package opts

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/testdock/internal/config"
	"github.com/schmitthub/testdock/internal/health"
	"github.com/schmitthub/testdock/internal/options"
)

func TestOptionOpts_Set(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   options.Options
	}{
		{
			name:   "single value",
			values: []string{"shmSize=2g"},
			want:   options.Options{"shmSize": "2g"},
		},
		{
			name:   "bare key is a switch",
			values: []string{"privileged"},
			want:   options.Options{"privileged": true},
		},
		{
			name:   "false disables a switch",
			values: []string{"rm=false"},
			want:   options.Options{"rm": false},
		},
		{
			name:   "repeated key becomes a list",
			values: []string{"p=8080:80", "p=9090:90", "p=7070:70"},
			want:   options.Options{"p": []any{"8080:80", "9090:90", "7070:70"}},
		},
		{
			name:   "value may contain equals",
			values: []string{"e=FOO=bar"},
			want:   options.Options{"e": "FOO=bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptionOpts()
			for _, v := range tt.values {
				require.NoError(t, o.Set(v))
			}
			assert.Equal(t, tt.want, o.GetAll())
		})
	}
}

func TestOptionOpts_SetRejectsEmptyKey(t *testing.T) {
	o := NewOptionOpts()
	assert.Error(t, o.Set("=value"))
	assert.Equal(t, 0, o.Len())
}

func TestOptionOpts_String(t *testing.T) {
	o := NewOptionOpts()
	assert.Equal(t, "", o.String())

	require.NoError(t, o.Set("shmSize=2g"))
	require.NoError(t, o.Set("rm"))
	assert.Equal(t, "shmSize=2g,rm=true", o.String())
}

func TestOptionOpts_IsPflagValue(t *testing.T) {
	var _ pflag.Value = NewOptionOpts()
}

func parse(t *testing.T, args ...string) (*pflag.FlagSet, *ContainerOptions) {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := NewContainerOptions()
	AddFlags(flags, o)
	require.NoError(t, flags.Parse(args))
	return flags, o
}

func TestAddFlags_ArgsUsage(t *testing.T) {
	flags, _ := parse(t)
	f := flags.Lookup("args")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "before the image")
}

func TestApply_OnlyChangedFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DockerOptions.Image = "nginx"
	cfg.DockerOptions.Command = "nginx -g daemon off;"
	cfg.DockerLogs = "./logs"

	flags, o := parse(t, "--args", "--verbose")
	o.Apply(flags, cfg)

	assert.Equal(t, "nginx", cfg.DockerOptions.Image)
	assert.Equal(t, "nginx -g daemon off;", cfg.DockerOptions.Command)
	assert.Equal(t, "--verbose", cfg.DockerOptions.Args)
	assert.Equal(t, "./logs", cfg.DockerLogs)
}

func TestApply_AllFlags(t *testing.T) {
	cfg := config.DefaultConfig()

	flags, o := parse(t,
		"--image", "redis",
		"--command", "redis-server",
		"--health-check", "http://localhost:6379",
		"--docker-logs", "out.log",
		"--log-to-stdout",
		"--api",
		"-o", "p=6379:6379",
	)
	o.Apply(flags, cfg)

	assert.Equal(t, "redis", cfg.DockerOptions.Image)
	assert.Equal(t, "redis-server", cfg.DockerOptions.Command)
	require.NotNil(t, cfg.DockerOptions.HealthCheck)
	assert.Equal(t, "http://localhost:6379", cfg.DockerOptions.HealthCheck.URL)
	assert.Equal(t, "out.log", cfg.DockerLogs)
	assert.True(t, cfg.LogToStdout)
	assert.True(t, cfg.Runtime.API)
	assert.Equal(t, options.Options{"p": "6379:6379"}, cfg.DockerOptions.Options)
}

func TestApply_HealthCheckKeepsTuning(t *testing.T) {
	cfg := config.DefaultConfig()
	original := &health.Target{URL: "http://old", MaxAttempts: 3}
	cfg.DockerOptions.HealthCheck = original

	flags, o := parse(t, "--health-check", "http://new")
	o.Apply(flags, cfg)

	assert.Equal(t, "http://new", cfg.DockerOptions.HealthCheck.URL)
	assert.Equal(t, 3, cfg.DockerOptions.HealthCheck.MaxAttempts)
	assert.Equal(t, "http://old", original.URL, "config target must not be mutated")
}

func TestApply_OptionsOverrideConfigPerKey(t *testing.T) {
	cfg := config.DefaultConfig()
	base := options.Options{"p": []any{"80:80"}, "shmSize": "1g"}
	cfg.DockerOptions.Options = base

	flags, o := parse(t, "-o", "p=8080:80")
	o.Apply(flags, cfg)

	assert.Equal(t, options.Options{"p": "8080:80", "shmSize": "1g"}, cfg.DockerOptions.Options)
	assert.Equal(t, []any{"80:80"}, base["p"], "config options must not be mutated")
}
