// Package launcher wraps a container around a test run: OnPrepare starts it
// and waits for readiness, OnComplete tears it down.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/schmitthub/testdock/internal/docker"
	"github.com/schmitthub/testdock/internal/logger"
)

// DefaultLogFileName is used when DockerLogs names a directory.
const DefaultLogFileName = "docker-log.txt"

// ImageRequiredReason is reported when no image is configured.
const ImageRequiredReason = "dockerOptions.image is a required property"

var fileExtPattern = regexp.MustCompile(`(?i)\.[0-9a-z]+$`)

// Launcher runs one container for the duration of a test run.
type Launcher struct {
	// Spec describes the container. Spec.Image is required.
	Spec docker.Spec
	// DockerLogs is a file or directory receiving the container's output.
	// Empty disables the log file.
	DockerLogs string
	// LogToStdout, when set, also receives the container's output.
	LogToStdout io.Writer
	// OnDockerReady is called after the container is up and healthy.
	OnDockerReady func()
	// Options are passed to docker.New.
	Options []docker.Option
	// Log defaults to the global logger.
	Log logger.Logger

	container *docker.Container
	sink      *os.File
	sinkLock  *flock.Flock
	copies    sync.WaitGroup
}

// LogFilePath resolves the DockerLogs setting to a file. A path whose last
// element has an extension is a file; anything else is treated as a directory
// holding DefaultLogFileName.
func LogFilePath(path string) string {
	if fileExtPattern.MatchString(filepath.Base(path)) {
		return path
	}
	return filepath.Join(path, DefaultLogFileName)
}

// Container returns the container created by OnPrepare, or nil.
func (l *Launcher) Container() *docker.Container { return l.container }

// OnPrepare starts the container and blocks until it is ready. Output
// redirection is attached as soon as the process exists, before health
// polling begins.
func (l *Launcher) OnPrepare(ctx context.Context) error {
	if strings.TrimSpace(l.Spec.Image) == "" {
		return &docker.ConfigurationError{Reason: ImageRequiredReason}
	}
	if l.container != nil {
		return docker.ErrAlreadyStarted
	}

	log := l.logger()
	opts := append([]docker.Option{docker.WithLogger(log)}, l.Options...)
	l.container = docker.New(l.Spec, opts...)

	if l.DockerLogs != "" || l.LogToStdout != nil {
		l.container.OnProcessCreated(l.redirect)
	}

	if err := l.container.Run(ctx); err != nil {
		if l.Spec.Debug {
			log.Error().Err(err).Str("image", l.Spec.Image).Msg("failed to run container")
		}
		return err
	}

	log.Debug().Str("image", l.Spec.Image).Msg("container ready")
	if l.OnDockerReady != nil {
		l.OnDockerReady()
	}
	return nil
}

// OnComplete stops the container and flushes redirected output. It does
// nothing if OnPrepare never created a container, and is safe to call twice.
func (l *Launcher) OnComplete(ctx context.Context) {
	if l.container == nil {
		return
	}
	l.container.Stop(ctx)

	done := make(chan struct{})
	go func() {
		l.copies.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if l.sink != nil {
		if err := l.sink.Close(); err != nil && l.Spec.Debug {
			l.logger().Warn().Err(err).Msg("failed to close docker log file")
		}
		l.sink = nil
	}
	if l.sinkLock != nil {
		_ = l.sinkLock.Unlock()
		l.sinkLock = nil
	}
}

// redirect copies both output streams into the configured sinks.
func (l *Launcher) redirect(p *docker.Process) {
	log := l.logger()

	var writers []io.Writer
	if l.DockerLogs != "" {
		f, lock, err := openLogFile(LogFilePath(l.DockerLogs))
		if err != nil {
			if l.Spec.Debug {
				log.Warn().Err(err).Str("path", l.DockerLogs).Msg("docker output will not be written to the log file")
			}
		} else {
			l.sink, l.sinkLock = f, lock
			writers = append(writers, f)
			log.Debug().Str("path", f.Name()).Msg("redirecting docker output")
		}
	}
	if l.LogToStdout != nil {
		writers = append(writers, l.LogToStdout)
	}
	if len(writers) == 0 {
		return
	}

	w := &syncWriter{w: io.MultiWriter(writers...)}
	stdout, stderr := p.Stdout(), p.Stderr()

	l.copies.Add(2)
	go l.pump(stdout, w)
	go l.pump(stderr, w)
}

func (l *Launcher) pump(r io.ReadCloser, w io.Writer) {
	defer l.copies.Done()
	defer r.Close()
	if _, err := io.Copy(w, r); err != nil && l.Spec.Debug {
		l.logger().Debug().Err(err).Msg("docker output copy ended")
	}
}

func (l *Launcher) logger() logger.Logger {
	if l.Log != nil {
		return l.Log
	}
	return logger.Global{}
}

// openLogFile creates path and its parent directories, truncating any
// existing file. An advisory lock on path+".lock" keeps a concurrent run from
// truncating a file that is still being written.
func openLogFile(path string) (*os.File, *flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring file lock for %s: %w", path, err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("log file %s is in use by another run", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, lock, nil
}

// syncWriter serialises writes from the stdout and stderr pumps.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
