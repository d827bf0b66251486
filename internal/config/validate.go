package config

import (
	"fmt"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"

	"github.com/schmitthub/testdock/internal/docker"
)

// Option keys whose values are port publish specs.
var publishKeys = []string{"p", "publish"}

// Option keys whose values are byte sizes such as "2g".
var sizeKeys = []string{"shmSize", "shm-size", "shm_size", "memory", "m", "memory-swap", "memorySwap", "memory-reservation", "memoryReservation"}

// Validate checks the configuration before anything is spawned. Problems are
// reported as *docker.ConfigurationError.
func (c *Config) Validate() error {
	d := c.DockerOptions
	if strings.TrimSpace(d.Image) == "" {
		return &docker.ConfigurationError{Field: "docker_options.image", Reason: "an image is required"}
	}

	for _, key := range publishKeys {
		for _, spec := range d.Options.Strings(key) {
			if _, err := nat.ParsePortSpec(spec); err != nil {
				return &docker.ConfigurationError{
					Field:  "docker_options.options." + key,
					Reason: fmt.Sprintf("invalid port mapping %q: %v", spec, err),
				}
			}
		}
	}

	for _, key := range sizeKeys {
		for _, size := range d.Options.Strings(key) {
			if key == "memory-swap" || key == "memorySwap" {
				if size == "-1" {
					continue
				}
			}
			if _, err := units.RAMInBytes(size); err != nil {
				return &docker.ConfigurationError{
					Field:  "docker_options.options." + key,
					Reason: fmt.Sprintf("invalid size %q: %v", size, err),
				}
			}
		}
	}

	if d.HealthCheck != nil && (d.HealthCheck.URL != "" || d.HealthCheck.Probe != nil) {
		if err := d.HealthCheck.Validate(); err != nil {
			return &docker.ConfigurationError{Field: "docker_options.health_check", Reason: err.Error()}
		}
	}

	if c.Runtime.StopTimeout < 0 {
		return &docker.ConfigurationError{Field: "runtime.stop_timeout", Reason: "must not be negative"}
	}
	return nil
}
