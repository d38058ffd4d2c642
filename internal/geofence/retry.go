package geofence

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Backoff controls how registration failures are retried.
type Backoff struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultBackoff retries a failed registration twice, starting at 500ms.
var DefaultBackoff = Backoff{Attempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

// retry calls fn until it succeeds, the attempts are used up, or ctx ends.
// The last failure is wrapped in the returned error.
func (b Backoff) retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)

	var lastErr error
	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("registration cancelled: %w", err)
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("registration cancelled: %w", ctx.Err())
		case <-time.After(b.delay(attempt)):
		}
	}
	return fmt.Errorf("registration failed after %d attempts: %w", attempts, lastErr)
}

// delay doubles BaseDelay per attempt, caps it at MaxDelay, and picks a
// uniform point in the upper half.
func (b Backoff) delay(attempt int) time.Duration {
	d := b.BaseDelay * (1 << attempt)
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	if d < 2 {
		return d
	}
	return d/2 + time.Duration(rand.Int63n(int64(d)/2)) //nolint:gosec // jitter does not need crypto/rand
}
