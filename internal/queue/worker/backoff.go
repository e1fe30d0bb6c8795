package worker

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
	maxJitter   = 250 * time.Millisecond
)

// ExponentialBackoff returns the wait before retry number attempt (0-based):
// 2s, 4s, 8s ... capped at 5m, plus up to 250ms of jitter so retries of a
// burst of failures do not land together.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := backoffCap
	if f := float64(backoffBase) * math.Pow(2, float64(attempt)); f < float64(backoffCap) {
		delay = time.Duration(f)
	}

	return delay + time.Duration(rand.Int63n(int64(maxJitter)))
}
