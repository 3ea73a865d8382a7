package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Permanent marks an error that must not be retried.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Retry calls fn up to attempts times, sleeping delay between calls.
// It stops early on success, on a *Permanent error, or when ctx is done.
func Retry(ctx context.Context, attempts int, delay time.Duration, logger *zap.Logger, fn func() error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			logger.Info("retrying request", zap.Int("attempt", i+1), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
	}
	return fmt.Errorf("after %d attempts, last error: %w", attempts, err)
}
