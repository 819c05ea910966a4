package clepsydra

import "errors"

// Sentinel errors for the instrumentation bus.
var (
	// ErrInvalidSubscription is returned when Subscribe is called without a listener.
	ErrInvalidSubscription = errors.New("no listener given")

	// ErrInvalidInstrument is returned when Instrument is called without a block.
	ErrInvalidInstrument = errors.New("no block given")

	// ErrNoSuchEvent is matched by every NoSuchEventError.
	ErrNoSuchEvent = errors.New("no such event")
)

// NoSuchEventError is returned when an event is finished without a matching
// start, or finished twice.
type NoSuchEventError struct {
	// EventID is the id passed to Finish.
	EventID string

	// EventName is the event the subscriber is registered for.
	EventName Key
}

// Error implements the error interface.
func (e *NoSuchEventError) Error() string {
	return e.EventID + " for " + e.EventName + " does not exist or already completed"
}

// Is reports whether target is ErrNoSuchEvent.
func (*NoSuchEventError) Is(target error) bool {
	return target == ErrNoSuchEvent
}
