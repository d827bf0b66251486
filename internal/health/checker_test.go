package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/testdock/internal/logger/loggertest"
)

var errDown = errors.New("connection refused")

// failingProbe fails the first n attempts and succeeds afterwards. A negative n
// never succeeds.
func failingProbe(n int, calls *atomic.Int32) ProbeFunc {
	return func(ctx context.Context) error {
		c := int(calls.Add(1))
		if n < 0 || c <= n {
			return errDown
		}
		return nil
	}
}

func fastTarget(p Probe, maxAttempts int) *Target {
	return &Target{
		Probe:       p,
		MaxAttempts: maxAttempts,
		Interval:    5 * time.Millisecond,
	}
}

func TestWait_SucceedsAfterFailures(t *testing.T) {
	tests := []struct {
		name     string
		failures int
	}{
		{"first attempt", 0},
		{"one failure", 1},
		{"several failures", 4},
		{"last allowed attempt", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			target := fastTarget(failingProbe(tt.failures, &calls), 10)

			err := NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil)

			require.NoError(t, err)
			assert.Equal(t, int32(tt.failures+1), calls.Load())
		})
	}
}

func TestWait_StopsAtMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	target := fastTarget(failingProbe(-1, &calls), 3)

	err := NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWait_DefaultMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	target := fastTarget(failingProbe(-1, &calls), 0)

	err := NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, DefaultMaxAttempts, timeoutErr.Attempts)
	assert.Equal(t, int32(DefaultMaxAttempts), calls.Load())
}

func TestWait_ExitStopsPolling(t *testing.T) {
	var calls atomic.Int32
	exited := make(chan struct{})
	probe := ProbeFunc(func(ctx context.Context) error {
		if calls.Add(1) == 2 {
			close(exited)
		}
		return errDown
	})
	target := fastTarget(probe, 50)

	err := NewChecker(loggertest.NewNop()).Wait(context.Background(), target, exited)

	require.ErrorIs(t, err, ErrTargetExited)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWait_ExitBeforeFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	exited := make(chan struct{})
	close(exited)

	err := NewChecker(loggertest.NewNop()).Wait(context.Background(), fastTarget(failingProbe(0, &calls), 5), exited)

	require.ErrorIs(t, err, ErrTargetExited)
	assert.Zero(t, calls.Load())
}

func TestWait_ExitCancelsInFlightAttempt(t *testing.T) {
	exited := make(chan struct{})
	probe := ProbeFunc(func(ctx context.Context) error {
		close(exited)
		<-ctx.Done()
		return ctx.Err()
	})
	target := fastTarget(probe, 5)
	target.AttemptTimeout = time.Minute

	done := make(chan error, 1)
	go func() { done <- NewChecker(loggertest.NewNop()).Wait(context.Background(), target, exited) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrTargetExited)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after exit")
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	probe := ProbeFunc(func(context.Context) error {
		if calls.Add(1) == 1 {
			cancel()
		}
		return errDown
	})

	err := NewChecker(loggertest.NewNop()).Wait(ctx, fastTarget(probe, 10), nil)

	require.ErrorIs(t, err, context.Canceled)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestWait_OverallTimeout(t *testing.T) {
	var calls atomic.Int32
	target := &Target{
		Probe:       failingProbe(-1, &calls),
		MaxAttempts: 1000,
		Interval:    10 * time.Millisecond,
		Timeout:     50 * time.Millisecond,
	}

	start := time.Now()
	err := NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Less(t, calls.Load(), int32(1000))
	assert.ErrorIs(t, err, errDown)
}

func TestWait_StartDelay(t *testing.T) {
	var firstAt atomic.Int64
	start := time.Now()
	probe := ProbeFunc(func(context.Context) error {
		firstAt.CompareAndSwap(0, int64(time.Since(start)))
		return nil
	})
	target := &Target{Probe: probe, StartDelay: 30 * time.Millisecond}

	require.NoError(t, NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil))
	assert.GreaterOrEqual(t, time.Duration(firstAt.Load()), 30*time.Millisecond)
}

func TestWait_InvalidTarget(t *testing.T) {
	err := NewChecker(nil).Wait(context.Background(), &Target{}, nil)
	require.Error(t, err)

	err = NewChecker(nil).Wait(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestWait_LogsFailedAttempts(t *testing.T) {
	tl := loggertest.New()
	var calls atomic.Int32

	err := NewChecker(tl).Wait(context.Background(), fastTarget(failingProbe(1, &calls), 5), nil)

	require.NoError(t, err)
	assert.Contains(t, tl.Output(), "health check attempt failed")
	assert.Contains(t, tl.Output(), "health check succeeded")
}

func TestWait_HTTPTarget(t *testing.T) {
	t.Run("any status is healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		target := URLTarget(srv.URL)
		target.Interval = 5 * time.Millisecond

		require.NoError(t, NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil))
	})

	t.Run("closed port times out", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		url := "http://" + ln.Addr().String()
		require.NoError(t, ln.Close())

		target := &Target{URL: url, MaxAttempts: 2, Interval: 5 * time.Millisecond}
		err = NewChecker(loggertest.NewNop()).Wait(context.Background(), target, nil)

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, 2, timeoutErr.Attempts)
		assert.Contains(t, timeoutErr.Error(), url)
	})
}
