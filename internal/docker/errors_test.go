package docker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schmitthub/testdock/internal/health"
)

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"configuration", &ConfigurationError{Field: "image", Reason: "image is required"}, "invalid image: image is required"},
		{"configuration without field", &ConfigurationError{Reason: "dockerOptions.image is a required property"}, "dockerOptions.image is a required property"},
		{"spawn", &SpawnError{Runtime: "docker", Err: cause}, "failed to start docker: boom"},
		{"exited", &ProcessExitedError{ExitCode: 125, Err: cause}, "container process exited with code 125 before it became healthy: boom"},
		{"stopped", &ProcessExitedError{Stopped: true}, "container was stopped before it became healthy"},
		{"teardown", &TeardownError{Op: "remove container", Err: cause}, "teardown remove container: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, &SpawnError{Err: cause}, cause)
	assert.ErrorIs(t, &ProcessExitedError{Err: cause}, cause)
	assert.ErrorIs(t, &TeardownError{Err: cause}, cause)

	var timeoutErr *HealthCheckTimeoutError
	assert.ErrorAs(t, error(&health.TimeoutError{Attempts: 10, LastErr: cause}), &timeoutErr)
	assert.Equal(t, 10, timeoutErr.Attempts)
}
