package clepsydra

import (
	"fmt"

	"go.uber.org/multierr"
)

// Instrumenter correlates start and finish for one execution context and
// attributes finished events to itself. Bind one per context with
// WithInstrumenter, or construct directly for a specific Notifier.
type Instrumenter struct {
	notifier *Notifier
	id       string
}

// NewInstrumenter creates an instrumenter bound to notifier.
func NewInstrumenter(notifier *Notifier) *Instrumenter {
	return &Instrumenter{
		id:       instrumenterPrefix + Generate(),
		notifier: notifier,
	}
}

// ID returns the instrumenter's identifier.
func (i *Instrumenter) ID() string {
	return i.id
}

// Notifier returns the notifier this instrumenter dispatches through.
func (i *Instrumenter) Notifier() *Notifier {
	return i.notifier
}

// Instrument starts eventName, runs fn and finishes the event on every exit
// path, including a panic in fn.
//
// If fn returns an error, payload receives PayloadException and
// PayloadExceptionMessage before finish, and the error is returned as is.
// If finish itself fails too, both errors are combined. A panic in fn is
// recorded the same way and re-raised after finish. The re-raised value is
// unchanged, but its stack trace starts in Instrument rather than at the
// original panic site.
func (i *Instrumenter) Instrument(eventName Key, payload Payload, fn func(Payload) error) (err error) {
	if fn == nil {
		return ErrInvalidInstrument
	}
	if payload == nil {
		payload = Payload{}
	}

	eventID := i.Start(eventName)

	defer func() {
		if r := recover(); r != nil {
			recordFailure(payload, r)
			// The panic wins over a finish failure.
			_ = i.Finish(eventName, eventID, payload)
			panic(r)
		}
		err = multierr.Combine(err, i.Finish(eventName, eventID, payload))
	}()

	if err = fn(payload); err != nil {
		recordFailure(payload, err)
	}
	return err
}

// Start begins a new event and returns its id.
func (i *Instrumenter) Start(eventName Key) string {
	return i.notifier.Start(eventName)
}

// Finish completes eventID, attributing it to this instrumenter.
func (i *Instrumenter) Finish(eventName Key, eventID string, payload Payload) error {
	return i.notifier.Finish(eventName, eventID, i.id, payload)
}

func recordFailure(payload Payload, failure any) {
	payload[PayloadException] = failure
	payload[PayloadExceptionMessage] = fmt.Sprintf("%+v", failure)
}
