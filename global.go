package clepsydra

import (
	"context"
	"sync"
)

var (
	defaultOnce         sync.Once
	defaultNotifier     *Notifier
	defaultInstrumenter *Instrumenter
)

// Default returns the process-wide notifier, creating it on first use.
func Default() *Notifier {
	defaultOnce.Do(func() {
		defaultNotifier = New()
		defaultInstrumenter = NewInstrumenter(defaultNotifier)
	})
	return defaultNotifier
}

// WithInstrumenter binds a new instrumenter for the process-wide notifier to
// ctx. A context already bound to one is returned unchanged.
func WithInstrumenter(ctx context.Context) context.Context {
	notifier := Default()
	if existing := GetInstrumenter(ctx); existing != nil && existing.notifier == notifier {
		return ctx
	}
	return ContextWithInstrumenter(ctx, NewInstrumenter(notifier))
}

// InstrumenterFrom returns the instrumenter bound to ctx, or the process
// root instrumenter if ctx has none.
func InstrumenterFrom(ctx context.Context) *Instrumenter {
	notifier := Default()
	if instrumenter := GetInstrumenter(ctx); instrumenter != nil && instrumenter.notifier == notifier {
		return instrumenter
	}
	return defaultInstrumenter
}

// Subscribe registers a wall-clock listener on the process-wide notifier.
func Subscribe(eventName Key, listener Listener) (*Subscriber, error) {
	return Default().Subscribe(eventName, false, listener)
}

// MonotonicSubscribe registers a monotonic-clock listener on the process-wide notifier.
func MonotonicSubscribe(eventName Key, listener Listener) (*Subscriber, error) {
	return Default().Subscribe(eventName, true, listener)
}

// Unsubscribe removes one subscriber from the process-wide notifier.
func Unsubscribe(subscriber *Subscriber) {
	Default().UnsubscribeSubscriber(subscriber)
}

// UnsubscribeAll removes every subscriber of eventName from the process-wide notifier.
func UnsubscribeAll(eventName Key) {
	Default().UnsubscribeEvent(eventName)
}

// Subscribed reports whether eventName has subscribers on the process-wide notifier.
func Subscribed(eventName Key) bool {
	return Default().Subscribed(eventName)
}

// Instrument runs fn as eventName. Without subscribers fn simply runs and a
// nil fn is a no-op. With subscribers a nil fn still produces a notification.
func Instrument(ctx context.Context, eventName Key, payload Payload, fn func(Payload) error) error {
	if payload == nil {
		payload = Payload{}
	}

	if !Subscribed(eventName) {
		if fn == nil {
			return nil
		}
		return fn(payload)
	}

	if fn == nil {
		fn = func(Payload) error { return nil }
	}
	return InstrumenterFrom(ctx).Instrument(eventName, payload, fn)
}

// Start begins eventName and returns its id. ok is false when nobody is
// subscribed and no event was started.
func Start(ctx context.Context, eventName Key) (eventID string, ok bool) {
	if !Subscribed(eventName) {
		return "", false
	}
	return InstrumenterFrom(ctx).Start(eventName), true
}

// Finish completes eventID. No-op when nobody is subscribed.
func Finish(ctx context.Context, eventName Key, eventID string, payload Payload) error {
	if !Subscribed(eventName) {
		return nil
	}
	if payload == nil {
		payload = Payload{}
	}
	return InstrumenterFrom(ctx).Finish(eventName, eventID, payload)
}
