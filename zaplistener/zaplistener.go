// Package zaplistener turns finished clepsydra events into structured zap log entries.
package zaplistener

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zoobzio/clepsydra"
)

// DefaultMessage is the log message used for finished events.
const DefaultMessage = "event finished"

// Option configures the listener.
type Option func(*config)

type config struct {
	message string
	level   zapcore.Level
	fields  func(clepsydra.Payload) []zap.Field
}

// WithLevel sets the level for successful events. Failed events always log at Error.
func WithLevel(level zapcore.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithMessage sets the log message.
func WithMessage(message string) Option {
	return func(c *config) {
		c.message = message
	}
}

// WithPayloadFields extracts extra fields from the payload.
func WithPayloadFields(fn func(clepsydra.Payload) []zap.Field) Option {
	return func(c *config) {
		c.fields = fn
	}
}

// New returns a listener logging every finished event to logger.
// The listener runs under the notifier's lock, so logger should not block.
func New(logger *zap.Logger, opts ...Option) clepsydra.Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := config{
		message: DefaultMessage,
		level:   zapcore.DebugLevel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(event clepsydra.Event, start, finish clepsydra.Instant, payload clepsydra.Payload) error {
		level := cfg.level
		exception, failed := payload[clepsydra.PayloadException]
		if failed {
			level = zapcore.ErrorLevel
		}

		ce := logger.Check(level, cfg.message)
		if ce == nil {
			return nil
		}

		fields := []zap.Field{
			zap.String("event_name", event.Name),
			zap.String("event_id", event.ID),
			zap.String("notifier_id", event.NotifierID),
			zap.String("instrumenter_id", event.InstrumenterID),
			zap.String("subscriber_id", event.SubscriberID),
			zap.Duration("duration", finish.Sub(start)),
			zap.Bool("monotonic", start.IsMonotonic()),
		}
		if failed {
			if err, ok := exception.(error); ok {
				fields = append(fields, zap.Error(err))
			} else {
				fields = append(fields, zap.String("panic", fmt.Sprint(exception)))
			}
		}
		if cfg.fields != nil {
			fields = append(fields, cfg.fields(payload)...)
		}

		ce.Write(fields...)
		return nil
	}
}
