package poll

// Package poll implements the attempt-bounded readiness wait shared by all
// provisioning steps. Budgets are attempt counts, not wall-clock deadlines:
// nominal wait is interval*maxAttempts, but slow predicates can stretch the
// true elapsed time beyond that.

import (
	"context"
	"time"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// Check evaluates one readiness predicate against live external state.
// Errors are treated as not-ready: the poller logs them at debug level and
// keeps polling, so a flaky API read does not abort a wait.
type Check func(ctx context.Context) (bool, error)

// Until evaluates check every interval until it returns true, the attempt
// budget is exhausted, or ctx is cancelled. The predicate is evaluated at
// most maxAttempts times and never again after the first true result. On
// exhaustion it returns *model.ReadinessTimeoutError.
func Until(ctx context.Context, what string, interval time.Duration, maxAttempts int, check Check) error {
	logger := logging.FromContext(ctx)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ok, err := check(ctx)
		if err != nil {
			logger.Debug(ctx, "readiness check error, retrying",
				"what", what, "attempt", attempt, "error", err)
		} else if ok {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return &model.ReadinessTimeoutError{What: what, Attempts: maxAttempts, Interval: interval}
}

// Settle sleeps for the given duration, absorbing downstream propagation lag
// that a readiness predicate cannot observe (e.g. cloud load balancer
// convergence after the backing deployment reports ready). A zero or
// negative budget is a no-op. This is a heuristic, not a guarantee.
func Settle(ctx context.Context, what string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	logging.FromContext(ctx).Info(ctx, "settling", "what", what, "duration", d.String())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
