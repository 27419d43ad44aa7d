package mailer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Dispatch runs send in the background on a context detached from the
// caller's request, bounded by timeout. Failures are logged at Warn and
// otherwise ignored. The returned channel is closed when send returns;
// callers normally drop it.
func Dispatch(log *zap.Logger, what string, timeout time.Duration, send func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Error("notification panicked", zap.String("what", what), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			if errors.Is(err, ErrNotConfigured) {
				log.Debug("notification skipped", zap.String("what", what))
				return
			}
			log.Warn("notification failed", zap.String("what", what), zap.Error(err))
		}
	}()
	return done
}
