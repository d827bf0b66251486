package docker

import (
	"errors"
	"fmt"

	"github.com/schmitthub/testdock/internal/health"
)

var (
	// ErrAlreadyStarted is returned by Run on a container that has left Idle.
	ErrAlreadyStarted = errors.New("container has already been started")
	// ErrProcessReleased is returned when a released process handle is used.
	ErrProcessReleased = errors.New("process handle has been released")
)

// HealthCheckTimeoutError is returned by Run when the health check gave up
// before the container answered.
type HealthCheckTimeoutError = health.TimeoutError

// ConfigurationError reports an invalid or incomplete container specification.
// It is raised before any process is spawned.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SpawnError wraps a failure to start the container runtime process.
type SpawnError struct {
	Runtime string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Runtime, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ProcessExitedError is returned by Run when the container process terminated
// before it became healthy. Stopped is set when the exit was caused by Stop.
type ProcessExitedError struct {
	ExitCode int
	Stopped  bool
	Err      error
}

func (e *ProcessExitedError) Error() string {
	if e.Stopped {
		return "container was stopped before it became healthy"
	}
	msg := fmt.Sprintf("container process exited with code %d before it became healthy", e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProcessExitedError) Unwrap() error { return e.Err }

// TeardownError describes a failed step of Stop. Stop never returns it; it is
// only logged.
type TeardownError struct {
	Op  string
	Err error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("teardown %s: %v", e.Op, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
