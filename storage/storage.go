// Package storage provides the key-value persistence layer shared by the
// panel-side store and the host-side controller, plus the retry policy both
// use for reads and writes against it.
package storage

import (
	"context"
	"time"
)

// KeyAnimations is the single key holding the flat name → preset mapping.
const KeyAnimations = "animations"

// KV is the external persistence surface. Get reports found=false for an
// absent key without an error. Both calls may fail and may be slow; callers
// bound them with a context and a Policy.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Policy bounds a retried operation: a per-attempt timeout, a fixed delay
// between attempts, and a maximum attempt count. A zero-delay policy makes
// retry behavior deterministic in tests.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration // per attempt; 0 means no deadline
}

// DefaultPolicy matches the plugin's shipped retry behavior.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 500 * time.Millisecond, Timeout: 5 * time.Second}
}

// Do runs fn up to MaxAttempts times, sleeping Delay between attempts and
// bounding each attempt with Timeout. It returns nil on the first success,
// the last attempt's error after exhaustion, or ctx.Err() if the parent
// context is cancelled while waiting to retry.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if p.Delay > 0 {
				select {
				case <-time.After(p.Delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		attemptCtx := ctx
		cancel := func() {}
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err = fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}
