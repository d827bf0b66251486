package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schmitthub/testdock/internal/logger"
)

// ErrTargetExited is returned by Wait when the exit channel closes before the
// target reported healthy. Polling stops immediately.
var ErrTargetExited = errors.New("supervised process exited during health check")

// TimeoutError is returned when the retry budget or the overall timeout is
// exhausted without a successful attempt.
type TimeoutError struct {
	Target   string
	Attempts int
	LastErr  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("health check %s did not succeed after %d attempt(s)", e.Target, e.Attempts)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Checker polls health targets.
type Checker struct {
	log logger.Logger
}

// NewChecker creates a Checker that reports attempts to log. A nil log uses
// the global logger.
func NewChecker(log logger.Logger) *Checker {
	if log == nil {
		log = logger.Global{}
	}
	return &Checker{log: log}
}

// Wait polls target until an attempt succeeds.
//
// The first attempt runs immediately (after StartDelay, if set). Each failure
// is retried after the target's interval, up to its attempt ceiling, after
// which a *TimeoutError carrying the attempt count and last error is returned.
// If exited closes at any point, Wait returns ErrTargetExited without further
// attempts. A nil exited channel never fires.
func (c *Checker) Wait(ctx context.Context, target *Target, exited <-chan struct{}) error {
	if err := target.Validate(); err != nil {
		return err
	}

	probe := target.Prober()
	maxAttempts := target.maxAttempts()
	interval := target.interval()
	attemptTimeout := target.attemptTimeout()
	name := target.String()

	pollCtx := ctx
	if target.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, target.Timeout)
		defer cancel()
	}

	if target.StartDelay > 0 {
		if err := sleep(pollCtx, target.StartDelay, exited); err != nil {
			return c.interrupted(ctx, err, name, 0, nil)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if hasExited(exited) {
			return ErrTargetExited
		}

		err := runAttempt(pollCtx, probe, attemptTimeout, exited)
		if err == nil {
			c.log.Debug().Str("target", name).Int("attempt", attempt).Msg("health check succeeded")
			return nil
		}
		if hasExited(exited) {
			return ErrTargetExited
		}
		lastErr = err

		c.log.Debug().Err(err).Str("target", name).Int("attempt", attempt).Int("max_attempts", maxAttempts).Msg("health check attempt failed")

		if pollCtx.Err() != nil {
			return c.interrupted(ctx, pollCtx.Err(), name, attempt, lastErr)
		}
		if attempt == maxAttempts {
			break
		}
		if err := sleep(pollCtx, interval, exited); err != nil {
			return c.interrupted(ctx, err, name, attempt, lastErr)
		}
	}

	return &TimeoutError{Target: name, Attempts: maxAttempts, LastErr: lastErr}
}

// interrupted maps a stopped wait to the error Wait returns. The parent
// context being done is cancellation; the poll context alone expiring is the
// overall timeout.
func (c *Checker) interrupted(parent context.Context, cause error, name string, attempts int, lastErr error) error {
	if errors.Is(cause, ErrTargetExited) {
		return ErrTargetExited
	}
	if parent.Err() != nil {
		return fmt.Errorf("health check cancelled: %w", parent.Err())
	}
	if lastErr == nil {
		lastErr = cause
	}
	return &TimeoutError{Target: name, Attempts: attempts, LastErr: lastErr}
}

// runAttempt runs one probe bounded by timeout, cancelling it early if the
// process exits mid-request.
func runAttempt(ctx context.Context, probe Probe, timeout time.Duration, exited <-chan struct{}) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-exited:
			cancel()
		case <-done:
		}
	}()

	return probe.Attempt(attemptCtx)
}

func sleep(ctx context.Context, d time.Duration, exited <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-exited:
		return ErrTargetExited
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hasExited(exited <-chan struct{}) bool {
	select {
	case <-exited:
		return true
	default:
		return false
	}
}
