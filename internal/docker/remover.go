package docker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/moby/moby/client"
)

// DefaultRuntime is the container runtime binary used when none is configured.
const DefaultRuntime = "docker"

// Remover force-removes a container by id. Removing a container that no
// longer exists succeeds.
type Remover interface {
	Remove(ctx context.Context, id string) error
}

// CLIRemover removes containers with `<runtime> rm -f`.
type CLIRemover struct {
	Runtime string
}

func (r *CLIRemover) Remove(ctx context.Context, id string) error {
	runtime := r.Runtime
	if runtime == "" {
		runtime = DefaultRuntime
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, runtime, "rm", "-f", id)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if isNoSuchContainer(stderr.String()) {
			return nil
		}
		return fmt.Errorf("%s rm -f %s: %w: %s", runtime, shortID(id), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// containerAPI is the subset of the Engine API client APIRemover uses.
type containerAPI interface {
	ContainerRemove(ctx context.Context, containerID string, options client.ContainerRemoveOptions) (client.ContainerRemoveResult, error)
	Close() error
}

// APIRemover removes containers through the Engine API.
type APIRemover struct {
	api containerAPI
}

// NewAPIRemover connects to the daemon configured by the DOCKER_* environment.
func NewAPIRemover() (*APIRemover, error) {
	cli, err := client.New(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &APIRemover{api: cli}, nil
}

func (r *APIRemover) Remove(ctx context.Context, id string) error {
	_, err := r.api.ContainerRemove(ctx, id, client.ContainerRemoveOptions{Force: true})
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("removing container %s: %w", shortID(id), err)
	}
	return nil
}

// Close releases the API connection.
func (r *APIRemover) Close() error {
	return r.api.Close()
}

func isNotFoundError(err error) bool {
	if cerrdefs.IsNotFound(err) {
		return true
	}
	return isNoSuchContainer(err.Error())
}

func isNoSuchContainer(msg string) bool {
	return strings.Contains(msg, "No such container") || strings.Contains(msg, "not found")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
