// Package retry reissues failed remote calls with capped exponential
// backoff. Policies are evaluated through the backoff package so context
// cancellation interrupts waits immediately.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/porterbay/transit/errors"
)

// Policy controls how many attempts are made and how long to wait between
// them. The delay before attempt i (counting failures from zero) is
// BaseDelay * ExponentialBase^i capped at MaxDelay, plus up to 10% random
// jitter when Jitter is set.
type Policy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
}

// Delay returns the backoff delay after the given zero-based failed
// attempt, without jitter.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.ExponentialBase
	if base <= 1 {
		base = 2.0
	}

	d := float64(p.BaseDelay) * math.Pow(base, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// policyBackOff adapts a Policy to the backoff.BackOff interface.
type policyBackOff struct {
	policy  Policy
	attempt int
	rand    func() float64
}

func newPolicyBackOff(p Policy) *policyBackOff {
	return &policyBackOff{policy: p, rand: rand.Float64}
}

// NextBackOff returns the next delay, or backoff.Stop once the attempt
// budget is spent.
func (b *policyBackOff) NextBackOff() time.Duration {
	maxAttempts := b.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if b.attempt >= maxAttempts-1 {
		return backoff.Stop
	}

	d := b.policy.Delay(b.attempt)
	b.attempt++

	if b.policy.Jitter && d > 0 {
		d += time.Duration(float64(d) * 0.1 * b.rand())
	}
	return d
}

// Reset restarts the attempt counter.
func (b *policyBackOff) Reset() {
	b.attempt = 0
}

// Do runs op under the policy until it succeeds, the attempt budget runs
// out, or it fails with a non-retryable error. The last error is returned
// unchanged; classification happens inside op, and errors whose kind is not
// transient stop the loop immediately.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !errors.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.RetryWithData(wrapped, backoff.WithContext(newPolicyBackOff(p), ctx))
}
