// Package signals provides OS signal utilities for graceful shutdown. This is a
// leaf package: stdlib only, no internal imports, no logging.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that end a test run.
var ShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupSignalContext creates a context that's canceled on SIGINT/SIGTERM.
func SetupSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, ShutdownSignals...)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// Forward relays SIGINT/SIGTERM received by this process to target until the
// returned stop function is called. The test command receives the signal and
// decides how to exit; the run's own context stays alive so teardown still
// happens afterwards.
func Forward(target func(os.Signal) error) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, ShutdownSignals...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigChan:
				_ = target(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
