// Package health polls a readiness target until it answers, gives up, or the
// supervised process goes away.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Defaults applied to zero-valued Target fields.
const (
	DefaultMaxAttempts    = 10
	DefaultInterval       = 500 * time.Millisecond
	DefaultAttemptTimeout = 2 * time.Second
)

// Probe is a single readiness attempt. A nil error means the target is up.
type Probe interface {
	Attempt(ctx context.Context) error
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) error

// Attempt calls f(ctx).
func (f ProbeFunc) Attempt(ctx context.Context) error { return f(ctx) }

// Target describes what to poll and how. Exactly one of URL or Probe is used;
// a custom Probe takes precedence over URL.
type Target struct {
	URL   string `mapstructure:"url"`
	Probe Probe  `mapstructure:"-"`

	// MaxAttempts caps the number of attempts, including the first.
	MaxAttempts int `mapstructure:"max_retries"`
	// Interval is the pause between a failed attempt and the next one.
	Interval time.Duration `mapstructure:"inspect_interval"`
	// StartDelay postpones the first attempt.
	StartDelay time.Duration `mapstructure:"start_delay"`
	// AttemptTimeout bounds a single attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	// Timeout bounds the whole polling sequence. Zero means no bound beyond MaxAttempts.
	Timeout time.Duration `mapstructure:"timeout"`
}

// URLTarget returns a Target that probes url with default tuning.
func URLTarget(url string) *Target {
	return &Target{URL: url}
}

// ProbeTarget returns a Target that runs p with default tuning.
func ProbeTarget(p Probe) *Target {
	return &Target{Probe: p}
}

// Validate reports whether the target can be polled.
func (t *Target) Validate() error {
	if t == nil {
		return errors.New("health check target is nil")
	}
	if t.Probe == nil && t.URL == "" {
		return errors.New("health check requires a url or a probe")
	}
	if t.Probe == nil {
		u, err := url.Parse(t.URL)
		if err != nil {
			return fmt.Errorf("health check url %q: %w", t.URL, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("health check url %q must be an absolute http or https url", t.URL)
		}
	}
	if t.MaxAttempts < 0 {
		return fmt.Errorf("health check max_retries must not be negative, got %d", t.MaxAttempts)
	}
	if t.Interval < 0 || t.StartDelay < 0 || t.AttemptTimeout < 0 || t.Timeout < 0 {
		return errors.New("health check durations must not be negative")
	}
	return nil
}

// Prober returns the Probe that Wait dispatches to.
func (t *Target) Prober() Probe {
	if t.Probe != nil {
		return t.Probe
	}
	return &HTTPProbe{URL: t.URL}
}

// String describes the target for logs.
func (t *Target) String() string {
	if t.Probe != nil {
		if s, ok := t.Probe.(fmt.Stringer); ok {
			return s.String()
		}
		return "custom probe"
	}
	return t.URL
}

func (t *Target) maxAttempts() int {
	if t.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return t.MaxAttempts
}

func (t *Target) interval() time.Duration {
	if t.Interval <= 0 {
		return DefaultInterval
	}
	return t.Interval
}

func (t *Target) attemptTimeout() time.Duration {
	if t.AttemptTimeout <= 0 {
		return DefaultAttemptTimeout
	}
	return t.AttemptTimeout
}
