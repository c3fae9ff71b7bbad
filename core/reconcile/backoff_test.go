package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_DoublesAndCaps(t *testing.T) {
	base := 100 * time.Millisecond
	ceiling := 400 * time.Millisecond

	// Jitter keeps the delay within [full/2, full].
	expectWithin := func(attempt int, full time.Duration) {
		for range 50 {
			d := backoffDelay(attempt, base, ceiling)
			assert.GreaterOrEqual(t, d, full/2, "attempt %d", attempt)
			assert.LessOrEqual(t, d, full, "attempt %d", attempt)
		}
	}

	expectWithin(1, 100*time.Millisecond)
	expectWithin(2, 200*time.Millisecond)
	expectWithin(3, 400*time.Millisecond)
	expectWithin(4, 400*time.Millisecond) // capped
	expectWithin(10, 400*time.Millisecond)
}

func TestBackoffDelay_ZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(1, 0, time.Second))
}

func TestConfigNormalized(t *testing.T) {
	cfg := Config{MaxAttempts: 0, Concurrency: -1, BackoffBaseMS: 500, BackoffMaxMS: 100}.normalized()
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, cfg.BackoffBaseMS, cfg.BackoffMaxMS)
}
