package dockertest

import (
	"context"
	"sync"
	"testing"

	"github.com/moby/moby/client"
)

// FakeRemover is a function-field double for docker.Remover. With RemoveFn
// unset, Remove succeeds. Every call is recorded.
type FakeRemover struct {
	mu sync.Mutex

	RemoveFn func(ctx context.Context, id string) error

	calls []string
}

// Remove records id and delegates to RemoveFn.
func (f *FakeRemover) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	fn := f.RemoveFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

// Calls returns the ids Remove was called with.
func (f *FakeRemover) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// RequireDocker skips the test unless a docker daemon answers a ping.
func RequireDocker(t *testing.T) {
	t.Helper()
	if !isDockerAvailable() {
		t.Skip("Docker is not available, skipping test")
	}
}

func isDockerAvailable() bool {
	ctx := context.Background()
	cli, err := client.New(client.FromEnv)
	if err != nil {
		return false
	}
	defer cli.Close()

	_, err = cli.Ping(ctx, client.PingOptions{})
	return err == nil
}
