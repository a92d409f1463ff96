package transport

import (
	"context"
	"math/rand"
	"time"

	"github.com/flowdag/flowdag/metrics"
)

// RetryPolicy governs how WorkerClient/CoordinatorClient retry a failed RPC.
// Shape and backoff formula are carried over from the teacher's
// graph/policy.go RetryPolicy/computeBackoff, generalized from per-node
// graph-engine retries to per-RPC transport retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy matches spec §7's RPC retry policy: base 100ms, factor
// 2, capped at 3 retries, ±20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4, // initial attempt + 3 retries
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Retryable:   func(error) bool { return true },
	}
}

// computeBackoff mirrors graph/policy.go's exponential-backoff-with-jitter
// formula: delay = min(base * 2^attempt, maxDelay) +/- 20% jitter.
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	delay := base * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}
	jitterRange := float64(delay) * 0.2
	jitter := time.Duration(jitterRange) - time.Duration(rng.Float64()*2*jitterRange)
	out := delay + jitter
	if out < 0 {
		out = 0
	}
	return out
}

// withRetry invokes op up to policy.MaxAttempts times, sleeping between
// attempts per computeBackoff, stopping early if policy.Retryable(err) is
// false or ctx is cancelled. m may be nil; rpcName labels the
// flowdag_rpc_retries_total counter when m is supplied.
func withRetry(ctx context.Context, policy RetryPolicy, m *metrics.Metrics, rpcName string, op func(ctx context.Context) error) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	retryable := policy.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	var err error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 && m != nil {
			m.IncrementRetries(rpcName)
		}
		if err = op(ctx); err == nil {
			return nil
		}
		if !retryable(err) || attempt == policy.MaxAttempts-1 {
			return err
		}
		delay := computeBackoff(attempt, policy.BaseDelay, policy.MaxDelay, rng)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
