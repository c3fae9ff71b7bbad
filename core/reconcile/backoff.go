package reconcile

import (
	"math/rand/v2"
	"time"
)

// backoffDelay returns the sleep before retry number attempt (1-based).
// The delay doubles each attempt starting from base, is capped at ceiling,
// and carries bounded random jitter (half fixed, half random) to avoid
// synchronized retry storms across concurrent workers.
func backoffDelay(attempt int, base, ceiling time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			d = ceiling
			break
		}
	}
	if d > ceiling {
		d = ceiling
	}

	half := d / 2
	return half + rand.N(half+1)
}
