package conn

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// newRetrySchedule builds the reconnection delay policy: base, 2*base,
// 4*base, ... capped at max. Randomization is disabled so the schedule
// is exact, and MaxElapsedTime is zero so it never gives up; the
// manager resets it on every successful connect.
func newRetrySchedule(base, max time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = max
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
