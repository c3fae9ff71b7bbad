package reconcile

import "time"

// Config holds the synchronization policy and retry settings.
type Config struct {
	// CloseMissing closes catalog entries absent from the feed by default.
	CloseMissing bool `mapstructure:"close_missing" default:"false"`
	// UpdatePrices pushes price changes for existing entries by default.
	UpdatePrices bool `mapstructure:"update_prices" default:"false"`
	// MaxAttempts is the attempt limit per operation for transient failures.
	MaxAttempts int `mapstructure:"max_attempts" default:"4"`
	// BackoffBaseMS is the initial retry delay in milliseconds.
	BackoffBaseMS int `mapstructure:"backoff_base_ms" default:"250"`
	// BackoffMaxMS is the retry delay ceiling in milliseconds.
	BackoffMaxMS int `mapstructure:"backoff_max_ms" default:"5000"`
	// Concurrency is the number of in-flight catalog calls. The engine is
	// correct at 1; higher values only speed up I/O-bound runs.
	Concurrency int `mapstructure:"concurrency" default:"4"`
}

// BackoffBase returns the initial retry delay.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

// BackoffMax returns the retry delay ceiling.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMS) * time.Millisecond
}

// normalized returns a copy with unusable values replaced by safe minimums.
func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.BackoffMaxMS < c.BackoffBaseMS {
		c.BackoffMaxMS = c.BackoffBaseMS
	}
	return c
}
