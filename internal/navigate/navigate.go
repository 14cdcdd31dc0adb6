// Package navigate implements the resilient navigation policy shared by the
// fetch strategies: bounded retries with exponential backoff on timeouts and a
// shorter fixed backoff on other transport errors, both jittered.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/sivamaran/reddit-scraper/internal/post"
)

// DefaultMaxAttempts is used when Policy.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// State is a node of the navigation state machine.
type State int

// Navigation states. Success and Failed are terminal.
const (
	StateIdle State = iota
	StateNavigating
	StateTimedOut
	StateOtherError
	StateBackoff
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateTimedOut:
		return "timed_out"
	case StateOtherError:
		return "other_error"
	case StateBackoff:
		return "backoff"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is reported to Policy.Observe on every state change.
type Transition struct {
	Target  string
	Attempt int
	From    State
	To      State
	Delay   time.Duration
	Err     error
}

// BackoffFunc returns the wait before the next attempt. attempt is zero-based
// (the attempt that just failed) and cause is StateTimedOut or StateOtherError.
type BackoffFunc func(attempt int, cause State) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy drives the retry loop. The zero value is usable: three attempts,
// DefaultBackoff with a time-seeded source and a real timer.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Sleep       SleepFunc
	Observe     func(Transition)
}

// Result is the tagged outcome of Run.
type Result[T any] struct {
	Value    T
	State    State
	Attempts int
	Err      error
}

// Unwrap returns the value and error pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// OK reports whether the run ended in StateSuccess.
func (r Result[T]) OK() bool {
	return r.State == StateSuccess
}

// Run calls attempt until it succeeds or the policy is exhausted. The error of
// a failed run wraps post.ErrNavigationTimeout or post.ErrNavigation.
func Run[T any](ctx context.Context, p Policy, target string, attempt func(context.Context) (T, error)) Result[T] {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = DefaultBackoff(rand.New(rand.NewSource(time.Now().UnixNano()))) //nolint:gosec // jitter only
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = TimerSleep
	}
	observe := func(tr Transition) {
		if p.Observe != nil {
			tr.Target = target
			p.Observe(tr)
		}
	}

	var zero T
	state := StateIdle
	for i := 0; i < maxAttempts; i++ {
		observe(Transition{Attempt: i, From: state, To: StateNavigating})
		value, err := attempt(ctx)
		if err == nil {
			observe(Transition{Attempt: i, From: StateNavigating, To: StateSuccess})
			return Result[T]{Value: value, State: StateSuccess, Attempts: i + 1}
		}

		cause := StateOtherError
		if IsTimeout(err) {
			cause = StateTimedOut
		}
		observe(Transition{Attempt: i, From: StateNavigating, To: cause, Err: err})

		if ctxErr := ctx.Err(); ctxErr != nil {
			observe(Transition{Attempt: i, From: cause, To: StateFailed, Err: ctxErr})
			return Result[T]{Value: zero, State: StateFailed, Attempts: i + 1, Err: fmt.Errorf("navigate %s: %w", target, ctxErr)}
		}
		if i == maxAttempts-1 {
			observe(Transition{Attempt: i, From: cause, To: StateFailed, Err: err})
			return Result[T]{Value: zero, State: StateFailed, Attempts: i + 1, Err: fmt.Errorf("navigate %s: %w", target, classify(err, cause))}
		}

		delay := backoff(i, cause)
		observe(Transition{Attempt: i, From: cause, To: StateBackoff, Delay: delay, Err: err})
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			observe(Transition{Attempt: i, From: StateBackoff, To: StateFailed, Err: sleepErr})
			return Result[T]{Value: zero, State: StateFailed, Attempts: i + 1, Err: fmt.Errorf("navigate %s: %w", target, sleepErr)}
		}
		state = StateBackoff
	}
	// unreachable: the loop returns on the last attempt
	return Result[T]{Value: zero, State: StateFailed, Err: fmt.Errorf("navigate %s: %w", target, post.ErrNavigation)}
}

// IsTimeout reports whether err is a navigation timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, post.ErrNavigationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func classify(err error, cause State) error {
	if cause == StateTimedOut {
		if errors.Is(err, post.ErrNavigationTimeout) {
			return err
		}
		return fmt.Errorf("%w: %w", post.ErrNavigationTimeout, err)
	}
	if errors.Is(err, post.ErrNavigation) {
		return err
	}
	return fmt.Errorf("%w: %w", post.ErrNavigation, err)
}

// BackoffConfig parameterises DefaultBackoffWith.
type BackoffConfig struct {
	// TimeoutBase is multiplied by 2^attempt after a timeout.
	TimeoutBase time.Duration
	// ErrorDelay is the fixed wait after a non-timeout error.
	ErrorDelay time.Duration
	// MaxJitter is the upper bound of the uniform jitter added to every wait.
	MaxJitter time.Duration
	// MaxDelay caps the exponential term; zero means uncapped.
	MaxDelay time.Duration
}

// DefaultBackoffConfig waits 2^attempt seconds after a timeout, 1.5s after any
// other error, plus up to one second of jitter.
var DefaultBackoffConfig = BackoffConfig{
	TimeoutBase: time.Second,
	ErrorDelay:  1500 * time.Millisecond,
	MaxJitter:   time.Second,
	MaxDelay:    30 * time.Second,
}

// DefaultBackoff returns DefaultBackoffWith(DefaultBackoffConfig, rng).
func DefaultBackoff(rng *rand.Rand) BackoffFunc {
	return DefaultBackoffWith(DefaultBackoffConfig, rng)
}

// DefaultBackoffWith builds a BackoffFunc drawing jitter from rng. A nil rng
// disables jitter. The returned func is safe for concurrent use.
func DefaultBackoffWith(cfg BackoffConfig, rng *rand.Rand) BackoffFunc {
	var mu sync.Mutex
	jitter := func() time.Duration {
		if rng == nil || cfg.MaxJitter <= 0 {
			return 0
		}
		mu.Lock()
		defer mu.Unlock()
		return time.Duration(rng.Int63n(int64(cfg.MaxJitter)))
	}
	return func(attempt int, cause State) time.Duration {
		if cause != StateTimedOut {
			return cfg.ErrorDelay + jitter()
		}
		delay := float64(cfg.TimeoutBase) * math.Pow(2, float64(attempt))
		if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
			delay = float64(cfg.MaxDelay)
		}
		return time.Duration(delay) + jitter()
	}
}

// TimerSleep blocks for d, returning early with ctx.Err() when ctx is done.
func TimerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
