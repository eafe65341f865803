package orchestrator

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxStreamRetries is how many times a transient streaming failure is
// retried before the turn fails into ERROR.
const maxStreamRetries = 2

// newRetryBackoff returns an ExponentialBackOff seeded to produce the
// documented 1s/4s retry schedule with jitter.
func newRetryBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 4
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0 // the caller bounds attempts, not elapsed time
	b.Reset()
	return b
}
