// Package async runs background tasks with panic recovery and error logging.
//
//	done := async.SafeGo(ctx, logger, 30*time.Second, "warm cache", func(ctx context.Context) error {
//		_, err := store.Load(ctx)
//		return err
//	})
//	<-done
package async
