// Package retry retries idempotent reads against the backing store with
// linear backoff. Writes are never retried.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/listenupapp/readlist/internal/store"
)

// Defaults for Policy.
const (
	DefaultAttempts = 3
	DefaultStep     = 200 * time.Millisecond
)

// Policy bounds a read: at most Attempts tries, waiting Step, 2*Step, ...
// between them. Zero fields take the defaults.
type Policy struct {
	Attempts int
	Step     time.Duration
}

// Default is the policy used when none is configured.
var Default = Policy{Attempts: DefaultAttempts, Step: DefaultStep}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = DefaultAttempts
	}
	if p.Step <= 0 {
		p.Step = DefaultStep
	}
	return p
}

// Read runs read until it succeeds, the attempts run out or ctx is done.
// Not-found answers are final and returned on the first attempt.
func Read[T any](ctx context.Context, p Policy, logger *slog.Logger, op string, read func() (T, error)) (T, error) {
	p = p.normalized()
	return backoff.Retry(ctx,
		func() (T, error) {
			v, err := read()
			if err != nil && errors.Is(err, store.ErrNotFound) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(&linear{step: p.Step}),
		backoff.WithMaxTries(uint(p.Attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			if logger != nil {
				logger.Warn("read failed, retrying", "op", op, "retry_in", next, "error", err)
			}
		}),
	)
}

// linear waits step, 2*step, 3*step, ... between attempts.
type linear struct {
	step    time.Duration
	attempt int
}

func (b *linear) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linear) Reset() { b.attempt = 0 }
