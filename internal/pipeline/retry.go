package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrRetriesExhausted marks a fetch that failed on every attempt. The error
// returned by Retry also wraps the last attempt's error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// maxBackoffShift keeps the doubling inside time.Duration.
const maxBackoffShift = 20

// RetryPolicy bounds a retried call. Delays double from BaseDelay: with a
// 2s base the waits before attempts 2, 3 and 4 are 2s, 4s and 8s.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy is used by both snapshot jobs unless configured otherwise.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}

// Delay returns the wait after failed attempt k (1-based): BaseDelay * 2^(k-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	shift := min(attempt-1, maxBackoffShift)
	return p.BaseDelay << shift
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// retryAfter is implemented by errors from a call that was refused before
// reaching the upstream, such as an open circuit breaker.
type retryAfter interface {
	RetryAfter() time.Duration
}

// Retry calls fn until it succeeds, the policy runs out of attempts, or ctx
// is cancelled. Each failed attempt is logged; there is no wait after the
// final attempt or after a success.
//
// A failure whose error implements RetryAfter never reached the upstream, so
// Retry waits that long and tries again without spending an attempt. At most
// MaxAttempts such waits are taken per call.
func Retry[T any](ctx context.Context, clock clockwork.Clock, policy RetryPolicy, logger *slog.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := policy.attempts()

	var lastErr error
	refused := 0
	for attempt := 1; attempt <= maxAttempts; {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		var ra retryAfter
		if errors.As(err, &ra) && ra.RetryAfter() > 0 && refused < maxAttempts {
			refused++
			logger.Warn("upstream refused call, waiting",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"wait", ra.RetryAfter(),
				"error", err,
			)
			if !sleepWithContext(ctx, clock, ra.RetryAfter()) {
				return zero, ctx.Err()
			}
			continue
		}

		if attempt == maxAttempts {
			logger.Warn("attempt failed",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err,
			)
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err,
		)
		if !sleepWithContext(ctx, clock, delay) {
			return zero, ctx.Err()
		}
		attempt++
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
