// Package clepsydrafx wires a clepsydra Notifier into an fx application.
package clepsydrafx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/zoobzio/clepsydra"
	"github.com/zoobzio/clepsydra/zaplistener"
)

// Config configures the provided Notifier.
type Config struct {
	// TokenPoolSize renders event ids in batches of this size when greater than zero.
	TokenPoolSize int

	// LogEvents subscribes a zap listener for each name in LoggedEvents.
	LogEvents bool

	// LoggedEvents lists the event names logged when LogEvents is set.
	LoggedEvents []clepsydra.Key

	// Monotonic makes the logged-event subscriptions use monotonic readings.
	Monotonic bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{}
}

// Params are the module's dependencies.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *Config     `optional:"true"`
	Logger    *zap.Logger `optional:"true"`
}

// Module provides a *clepsydra.Notifier.
var Module = fx.Module("clepsydra",
	fx.Provide(NewNotifier),
)

// NewNotifier builds a Notifier from params and drops its subscriptions when the app stops.
func NewNotifier(p Params) (*clepsydra.Notifier, error) {
	cfg := DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("clepsydra")

	opts := []clepsydra.Option{clepsydra.WithLogger(logger)}
	if cfg.TokenPoolSize > 0 {
		opts = append(opts, clepsydra.WithTokenPool(cfg.TokenPoolSize))
	}
	notifier := clepsydra.New(opts...)

	if cfg.LogEvents {
		listener := zaplistener.New(logger)
		for _, name := range cfg.LoggedEvents {
			if _, err := notifier.Subscribe(name, cfg.Monotonic, listener); err != nil {
				return nil, err
			}
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			notifier.Reset()
			return nil
		},
	})

	return notifier, nil
}
