package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yaegashi/aksmesh/domain/model"
)

func TestUntilStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Until(context.Background(), "thing", time.Millisecond, 10, func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls, "no further polling after first satisfied check")
}

func TestUntilImmediateSuccessSkipsSleep(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Until(context.Background(), "thing", time.Hour, 5, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Less(t, time.Since(start), time.Second)
}

func TestUntilExhaustsExactAttemptBudget(t *testing.T) {
	calls := 0
	err := Until(context.Background(), "node readiness", time.Millisecond, 7, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.Equal(t, 7, calls, "exactly maxAttempts evaluations")
	var terr *model.ReadinessTimeoutError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "node readiness", terr.What)
	require.Equal(t, 7, terr.Attempts)
	require.Equal(t, time.Millisecond, terr.Interval)
}

func TestUntilTreatsCheckErrorAsNotReady(t *testing.T) {
	calls := 0
	err := Until(context.Background(), "thing", time.Millisecond, 3, func(context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("transient read failure")
		}
		return true, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestUntilRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Until(ctx, "thing", time.Minute, 10, func(context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSettleZeroBudgetIsNoop(t *testing.T) {
	start := time.Now()
	require.NoError(t, Settle(context.Background(), "lb", 0))
	require.Less(t, time.Since(start), time.Second)
}
