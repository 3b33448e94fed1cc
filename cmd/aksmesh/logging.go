package main

import (
	"context"
	"time"

	"github.com/yaegashi/aksmesh/internal/logging"
)

// withCmdRunLogger implements the span pattern for CLI command logging.
// It emits a start log line and returns a context with logger attributes
// attached, plus a cleanup function to emit the success or failure line.
//
// Log message format:
// - Start:   CMD:<operation>/S
// - Success: CMD:<operation>/EOK
// - Failure: CMD:<operation>/EFAIL
//
// All lines use INFO level (mechanical recording). The runId is inherited
// from the context logger set in PersistentPreRunE.
func withCmdRunLogger(ctx context.Context, operation, resourceID string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("resourceId", resourceID)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "CMD:"+operation+"/EOK", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 32 {
			errStr = errStr[:32] + "..."
		}
		logger.Info(ctx, "CMD:"+operation+"/EFAIL", "err", errStr, "elapsed", elapsed)
	}

	return ctx, cleanup
}
