// Package docker runs and supervises a single container through the docker
// CLI for the duration of a test run.
package docker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/schmitthub/testdock/internal/health"
	"github.com/schmitthub/testdock/internal/logger"
	"github.com/schmitthub/testdock/internal/options"
)

// DefaultStopTimeout bounds each blocking step of Stop.
const DefaultStopTimeout = 10 * time.Second

// Spec declares the container to run.
type Spec struct {
	Image   string
	Command string
	// Args holds raw runtime flags placed before the image, e.g. "--privileged".
	Args    string
	Options options.Options
	// HealthCheck is polled after spawn. Nil disables polling.
	HealthCheck *health.Target
	// Debug logs teardown failures that are otherwise swallowed.
	Debug bool
}

// DefaultOptions are merged under every Spec's Options.
func DefaultOptions() options.Options {
	return options.Options{"rm": true}
}

// Container manages one container process from spawn to teardown.
type Container struct {
	spec        Spec
	runtime     string
	log         logger.Logger
	remover     Remover
	checker     *health.Checker
	stopTimeout time.Duration
	cidFile     string

	mu        sync.Mutex
	state     State
	proc      *Process
	callbacks []func(*Process)
	cancelRun context.CancelFunc
	stopping  bool
	stopDone  chan struct{}
}

// Option configures a Container.
type Option func(*Container)

// WithRuntime sets the runtime binary. Defaults to "docker".
func WithRuntime(binary string) Option {
	return func(c *Container) {
		if binary != "" {
			c.runtime = binary
		}
	}
}

// WithLogger sets the logger. Defaults to the global logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Container) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRemover sets how Stop removes the container. Defaults to a CLIRemover
// for the configured runtime.
func WithRemover(r Remover) Option {
	return func(c *Container) { c.remover = r }
}

// WithChecker sets the health checker.
func WithChecker(checker *health.Checker) Option {
	return func(c *Container) { c.checker = checker }
}

// WithTempDir sets the directory that holds the cid file.
func WithTempDir(dir string) Option {
	return func(c *Container) { c.cidFile = NewCIDFilePath(dir) }
}

// WithStopTimeout bounds each blocking step of Stop.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Container) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// New creates an idle Container for spec. Nothing is spawned until Run.
func New(spec Spec, opts ...Option) *Container {
	c := &Container{
		spec:        spec,
		runtime:     DefaultRuntime,
		log:         logger.Global{},
		stopTimeout: DefaultStopTimeout,
		stopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cidFile == "" {
		c.cidFile = NewCIDFilePath("")
	}
	if c.remover == nil {
		c.remover = &CLIRemover{Runtime: c.runtime}
	}
	if c.checker == nil {
		c.checker = health.NewChecker(c.log)
	}
	return c
}

// CIDFile returns the path the runtime writes the container id to.
func (c *Container) CIDFile() string { return c.cidFile }

// Runtime returns the runtime binary.
func (c *Container) Runtime() string { return c.runtime }

// State returns the current lifecycle state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunOptions returns the Spec options merged over the defaults, with the cid
// file set.
func (c *Container) RunOptions() options.Options {
	return options.Merge(DefaultOptions(), c.spec.Options, options.Options{CIDFileOption: c.cidFile})
}

// Args returns the argument vector Run passes to the runtime.
func (c *Container) Args() ([]string, error) {
	return BuildRunArgs(c.spec.Image, c.spec.Args, c.spec.Command, c.RunOptions())
}

// OnProcessCreated registers fn to be called once, synchronously, right after
// the process is spawned and before any health polling. Claim output streams
// from inside fn.
func (c *Container) OnProcessCreated(fn func(*Process)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Run spawns the container and, when a health check is configured, blocks
// until it answers. It returns a *ConfigurationError or *SpawnError before any
// process exists, a *HealthCheckTimeoutError when polling gives up, and a
// *ProcessExitedError when the process ends first. Run may be called once.
func (c *Container) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateStarting
	c.cancelRun = cancel

	argv, err := c.Args()
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		return err
	}
	if c.spec.HealthCheck != nil {
		if err := c.spec.HealthCheck.Validate(); err != nil {
			c.state = StateFailed
			c.mu.Unlock()
			return &ConfigurationError{Field: "health_check", Reason: err.Error()}
		}
	}

	c.log.Debug().Str("runtime", c.runtime).Strs("args", argv).Msg("starting container")

	proc, err := startProcess(c.runtime, argv)
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		return err
	}
	c.proc = proc
	c.state = StateRunning
	callbacks := append([]func(*Process){}, c.callbacks...)
	c.mu.Unlock()

	c.log.Debug().Int("pid", proc.Pid()).Str("cidfile", c.cidFile).Msg("container process started")

	for _, fn := range callbacks {
		fn(proc)
	}
	proc.closeClaims()

	target := c.spec.HealthCheck
	if target == nil {
		c.transition(StateRunning, StateHealthy)
		return nil
	}

	c.log.Debug().Str("target", target.String()).Msg("waiting for container to become healthy")

	err = c.checker.Wait(runCtx, target, proc.Done())
	if err == nil {
		c.transition(StateRunning, StateHealthy)
		c.log.Debug().Str("target", target.String()).Msg("container is healthy")
		return nil
	}

	c.transition(StateRunning, StateFailed)

	if c.isStopping() {
		return &ProcessExitedError{ExitCode: proc.ExitCode(), Stopped: true, Err: err}
	}
	if errors.Is(err, health.ErrTargetExited) {
		return &ProcessExitedError{ExitCode: proc.ExitCode(), Err: proc.Err()}
	}
	return err
}

// Stop tears the container down: it cancels polling, removes the container by
// the id in the cid file (falling back to signalling the process), waits for
// the process to exit, and deletes the cid file. Stop is idempotent, safe to
// call concurrently with Run, and never fails; teardown problems are logged
// when the Spec has Debug set.
func (c *Container) Stop(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateIdle || c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	if c.stopping {
		c.mu.Unlock()
		select {
		case <-c.stopDone:
		case <-ctx.Done():
		}
		return
	}
	c.stopping = true
	proc := c.proc
	cancel := c.cancelRun
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.teardown(ctx, proc)

	c.mu.Lock()
	c.state = StateStopped
	c.proc = nil
	c.mu.Unlock()
	close(c.stopDone)

	c.log.Debug().Str("cidfile", c.cidFile).Msg("container stopped")
}

func (c *Container) teardown(ctx context.Context, proc *Process) {
	var exited <-chan struct{}
	if proc != nil {
		exited = proc.Done()
	} else {
		closed := make(chan struct{})
		close(closed)
		exited = closed
	}

	readCtx, cancelRead := context.WithTimeout(ctx, c.stopTimeout)
	id, err := waitForCIDFile(readCtx, c.cidFile, exited)
	cancelRead()
	if err != nil {
		c.report(&TeardownError{Op: "read cid file", Err: err})
	}

	if id != "" {
		rmCtx, cancelRm := context.WithTimeout(ctx, c.stopTimeout)
		if err := c.remover.Remove(rmCtx, id); err != nil {
			c.report(&TeardownError{Op: "remove container", Err: err})
		} else {
			c.log.Debug().Str("container", shortID(id)).Msg("removed container")
		}
		cancelRm()
	}

	if proc != nil {
		if id == "" {
			if err := proc.terminate(c.stopTimeout); err != nil {
				c.report(&TeardownError{Op: "signal process", Err: err})
			}
		}

		waitCtx, cancelWait := context.WithTimeout(ctx, c.stopTimeout)
		err := proc.Wait(waitCtx)
		cancelWait()
		if err != nil {
			if termErr := proc.terminate(c.stopTimeout); termErr != nil {
				c.report(&TeardownError{Op: "signal process", Err: termErr})
			}
			killCtx, cancelKill := context.WithTimeout(context.WithoutCancel(ctx), c.stopTimeout)
			if err := proc.Wait(killCtx); err != nil {
				c.report(&TeardownError{Op: "wait for exit", Err: err})
			}
			cancelKill()
		}
		proc.release()
	}

	if err := removeCIDFile(c.cidFile); err != nil {
		c.report(&TeardownError{Op: "remove cid file", Err: err})
	}
}

func (c *Container) report(err error) {
	if c.spec.Debug {
		c.log.Warn().Err(err).Str("cidfile", c.cidFile).Msg("container teardown step failed")
	}
}

// transition moves from one state to another, leaving any other state alone.
func (c *Container) transition(from, to State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == from {
		c.state = to
	}
}

func (c *Container) isStopping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopping
}
