package steam

import (
	"context"
	"math/rand"
	"time"
)

// Throttler enforces a minimum delay plus random jitter between requests so
// the upstream rate limit is respected even across retries.
type Throttler struct {
	baseDelay time.Duration
	jitter    time.Duration
	rng       *rand.Rand
	last      time.Time
}

// NewThrottler creates a throttler with the given base delay and jitter cap.
func NewThrottler(baseDelay, jitter time.Duration) *Throttler {
	return &Throttler{
		baseDelay: baseDelay,
		jitter:    jitter,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks until the next request slot, honoring context cancellation.
func (t *Throttler) Wait(ctx context.Context) error {
	if !t.last.IsZero() {
		if need := t.baseDelay - time.Since(t.last); need > 0 {
			if err := sleepCtx(ctx, need); err != nil {
				return err
			}
		}
	}
	if t.jitter > 0 {
		if err := sleepCtx(ctx, time.Duration(t.rng.Int63n(int64(t.jitter)+1))); err != nil {
			return err
		}
	}
	t.last = time.Now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
