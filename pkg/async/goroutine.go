package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/petstore/pkg/observability"
)

// SafeGo executes a function in a goroutine with:
// - Context cancellation support
// - Panic recovery (a panic is reported as the task's error)
// - Optional timeout (zero means none)
// - Error logging
//
// The returned channel is closed once fn has returned or panicked.
//
// Example:
//
//	SafeGo(ctx, logger, 0, "document watcher", func(ctx context.Context) error {
//	    watcher.Run(ctx)
//	    return nil
//	})
func SafeGo(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := parentCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(parentCtx, timeout)
		}
		defer cancel()

		if err := runTask(ctx, logger, taskName, fn); err != nil {
			// Log error but don't crash
			logger.WithError(err).WithField("task", taskName).Error("Background task failed")
		}
	}()

	return done
}

func runTask(ctx context.Context, logger *observability.Logger, taskName string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]interface{}{
				"task":  taskName,
				"stack": string(debug.Stack()),
			}).Error("PANIC recovered")
			err = observability.PanicError(r)
		}
	}()
	return fn(ctx)
}
