// Package clepsydra provides a minimal, synchronous in-process instrumentation bus.
//
// Callers mark the start and finish of named operations and every listener
// subscribed to that name is notified with timing and payload data. It is the
// "instrument a block, notify interested observers" pattern behind metrics,
// logging and tracing hooks inside one process.
//
// Core Components:
//   - Notifier: Registry of subscribers keyed by event name, owns dispatch.
//   - Subscriber: One listener for one event name, tracks in-flight starts.
//   - Instrumenter: Per-execution-context wrapper that correlates start/finish.
//   - Collector: Buffers finished events for batch export.
//
// Basic Usage:
//
//	sub, err := clepsydra.Subscribe("db.query", func(e clepsydra.Event, start, finish clepsydra.Instant, p clepsydra.Payload) error {
//		log.Printf("%s took %s", e.Name, finish.Sub(start))
//		return nil
//	})
//
//	ctx = clepsydra.WithInstrumenter(ctx)
//	err = clepsydra.Instrument(ctx, "db.query", clepsydra.Payload{"sql": q}, func(p clepsydra.Payload) error {
//		return db.Exec(q)
//	})
//
// Thread Safety:
//
// Notifier is safe for concurrent use by multiple goroutines. Every operation
// holds a single mutex for its whole body, including listener invocation.
// Listeners must therefore be fast and must not block: a slow listener
// serializes all instrumentation on its Notifier.
//
// Listeners must not call back into the Notifier that is dispatching to them.
//
// Execution Contexts:
//
// Go has no goroutine identity, so an execution context is a context.Context.
// WithInstrumenter binds one Instrumenter to a context; contexts without a
// binding share the process root Instrumenter.
package clepsydra

// Key represents an event name.
type Key = string

// Payload carries caller data from Instrument to every listener.
// The same map is handed to all subscribers of one event.
type Payload map[string]any

// Reserved payload keys populated when an instrumented block fails.
const (
	PayloadException        = "exception"
	PayloadExceptionMessage = "exception_message"
)
