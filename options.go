package clepsydra

import (
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Option configures a Notifier.
type Option func(*notifierConfig)

type notifierConfig struct {
	clock         clockz.Clock
	logger        *zap.Logger
	tokenPoolSize int
}

func defaultNotifierConfig() notifierConfig {
	return notifierConfig{
		clock:  clockz.RealClock,
		logger: zap.NewNop(),
	}
}

// WithClock sets the clock used for snapshots.
// Enables clock injection for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *notifierConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for registry changes.
func WithLogger(logger *zap.Logger) Option {
	return func(c *notifierConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTokenPool renders event ids in batches of size instead of one at a
// time. Zero or less disables batching.
func WithTokenPool(size int) Option {
	return func(c *notifierConfig) {
		c.tokenPoolSize = size
	}
}
