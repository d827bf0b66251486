package docker

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a handle on a spawned runtime process. It is created by
// Container.Run and released by Container.Stop.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	stdout *stream
	stderr *stream
	exited chan struct{}

	mu       sync.Mutex
	exitErr  error
	exitCode int
	released bool
}

// stream is the read end of an output pipe. It can be claimed by at most one
// consumer; unclaimed streams are drained once the claim window closes.
type stream struct {
	mu      sync.Mutex
	file    *os.File
	claimed bool
	closed  bool
}

func (s *stream) claim() io.ReadCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed || s.closed {
		return errReader{ErrProcessReleased}
	}
	s.claimed = true
	return s.file
}

// drain discards everything written to an unclaimed stream.
func (s *stream) drain() {
	s.mu.Lock()
	if s.claimed || s.closed {
		s.mu.Unlock()
		return
	}
	s.claimed = true
	s.mu.Unlock()

	go func() {
		_, _ = io.Copy(io.Discard, s.file)
		_ = s.file.Close()
	}()
}

// closeWindow prevents any further claims.
func (s *stream) closeWindow() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
func (r errReader) Close() error             { return nil }

// startProcess spawns runtime with argv. Output goes to OS pipes created before
// the spawn, so nothing the child writes is lost while consumers attach.
func startProcess(runtime string, argv []string) (*Process, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Runtime: runtime, Err: err}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, &SpawnError{Runtime: runtime, Err: err}
	}

	cmd := exec.Command(runtime, argv...)
	cmd.Stdout = outW
	cmd.Stderr = errW
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return nil, &SpawnError{Runtime: runtime, Err: err}
	}

	// The child holds its own copies of the write ends.
	outW.Close()
	errW.Close()

	p := &Process{
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		stdout:   &stream{file: outR},
		stderr:   &stream{file: errR},
		exited:   make(chan struct{}),
		exitCode: -1,
	}
	go p.reap()
	return p, nil
}

func (p *Process) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exitErr = err
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.mu.Unlock()

	close(p.exited)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int { return p.pid }

// Stdout returns the process's standard output. Only the first call made
// from a process-created callback receives the stream; the caller must read it
// to EOF and close it. Later calls return a reader that fails with
// ErrProcessReleased.
func (p *Process) Stdout() io.ReadCloser { return p.stdout.claim() }

// Stderr is the standard error counterpart of Stdout.
func (p *Process) Stderr() io.ReadCloser { return p.stderr.claim() }

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} { return p.exited }

// Exited reports whether the process has terminated.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit status, or -1 while the process is running or if
// it was terminated by a signal.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Err returns the error reported when the process exited, if any.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// Signal sends sig to the process.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.Lock()
	released := p.released
	p.mu.Unlock()
	if released {
		return ErrProcessReleased
	}
	if p.Exited() {
		return os.ErrProcessDone
	}
	return p.cmd.Process.Signal(sig)
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// closeClaims drains unclaimed output and stops handing out streams.
func (p *Process) closeClaims() {
	p.stdout.drain()
	p.stderr.drain()
	p.stdout.closeWindow()
	p.stderr.closeWindow()
}

// terminate sends SIGTERM, then SIGKILL if the process is still alive after
// grace.
func (p *Process) terminate(grace time.Duration) error {
	if p.Exited() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		// Platforms without SIGTERM fall through to Kill.
		if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			return killErr
		}
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.exited:
		return nil
	case <-timer.C:
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// release marks the handle unusable.
func (p *Process) release() {
	p.closeClaims()
	p.mu.Lock()
	p.released = true
	p.mu.Unlock()
}
