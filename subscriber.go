package clepsydra

// Event identifies one finished event as seen by one subscriber.
type Event struct {
	Name           Key    `json:"event_name"`
	ID             string `json:"event_id"`
	NotifierID     string `json:"notifier_id"`
	InstrumenterID string `json:"instrumenter_id"`
	SubscriberID   string `json:"subscriber_id"`
}

// Listener is called once per finished event, on the goroutine that called
// Finish, while the Notifier's lock is held. Listeners must be fast and
// non-blocking. A returned error aborts dispatch to later subscribers and is
// returned from Finish unchanged.
type Listener func(event Event, start, finish Instant, payload Payload) error

// Subscriber is one registered listener for one event name.
// Its state is guarded by the owning Notifier's lock; it has no lock of its own.
type Subscriber struct {
	listener   Listener
	startTimes map[string]Instant
	id         string
	eventName  Key
	monotonic  bool
}

func newSubscriber(eventName Key, monotonic bool, listener Listener) *Subscriber {
	prefix := subscriberPrefix
	if monotonic {
		prefix = monotonicSubscriberPrefix
	}
	return &Subscriber{
		id:         prefix + Generate(),
		eventName:  eventName,
		monotonic:  monotonic,
		listener:   listener,
		startTimes: make(map[string]Instant),
	}
}

// ID returns the subscriber's identifier.
func (s *Subscriber) ID() string {
	return s.id
}

// EventName returns the event the subscriber listens to.
func (s *Subscriber) EventName() Key {
	return s.eventName
}

// Monotonic reports whether the subscriber receives monotonic readings.
func (s *Subscriber) Monotonic() bool {
	return s.monotonic
}

func (s *Subscriber) start(eventID string, snap Snapshot) {
	s.startTimes[eventID] = instantFrom(snap, s.monotonic)
}

func (s *Subscriber) finish(eventID, notifierID, instrumenterID string, snap Snapshot, payload Payload) error {
	startTime, ok := s.startTimes[eventID]
	if !ok {
		return &NoSuchEventError{EventID: eventID, EventName: s.eventName}
	}
	delete(s.startTimes, eventID)

	event := Event{
		Name:           s.eventName,
		ID:             eventID,
		NotifierID:     notifierID,
		InstrumenterID: instrumenterID,
		SubscriberID:   s.id,
	}
	return s.listener(event, startTime, instantFrom(snap, s.monotonic), payload)
}

func (s *Subscriber) pending() int {
	return len(s.startTimes)
}
