package clepsydra

import (
	"slices"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// Notifier is the registry of subscribers keyed by event name and the
// dispatcher of start and finish notifications.
// Safe for concurrent use by multiple goroutines.
//
// A single mutex guards the registry and every subscriber's in-flight state.
// It is held while listeners run.
//
//nolint:govet // Field order optimized for readability over memory
type Notifier struct {
	subscribers map[Key][]*Subscriber
	clock       clockz.Clock
	epoch       time.Time
	logger      *zap.Logger
	tokens      *TokenPool
	id          string
	mu          sync.Mutex
}

// New creates a new notifier.
// Uses the real clock and a no-op logger unless configured otherwise.
func New(opts ...Option) *Notifier {
	cfg := defaultNotifierConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	n := &Notifier{
		id:          notifierPrefix + Generate(),
		subscribers: make(map[Key][]*Subscriber),
		clock:       cfg.clock,
		logger:      cfg.logger,
	}
	n.epoch = n.clock.Now()
	n.logger = n.logger.With(zap.String("notifier_id", n.id))

	if cfg.tokenPoolSize > 0 {
		n.tokens = NewTokenPool(eventPrefix, cfg.tokenPoolSize)
	}

	return n
}

// ID returns the notifier's identifier.
func (n *Notifier) ID() string {
	return n.id
}

// Subscribe registers listener for eventName and returns its Subscriber.
// Subscribers are notified in registration order. A monotonic subscriber
// receives monotonic readings, otherwise wall-clock readings.
func (n *Notifier) Subscribe(eventName Key, monotonic bool, listener Listener) (*Subscriber, error) {
	if listener == nil {
		return nil, ErrInvalidSubscription
	}

	subscriber := newSubscriber(eventName, monotonic, listener)

	n.mu.Lock()
	defer n.mu.Unlock()

	n.subscribers[eventName] = append(n.subscribers[eventName], subscriber)

	n.logger.Debug("subscribed",
		zap.String("event_name", eventName),
		zap.String("subscriber_id", subscriber.id),
		zap.Bool("monotonic", monotonic),
	)

	return subscriber, nil
}

// UnsubscribeEvent removes every subscriber of eventName.
// No-op if there are none.
func (n *Notifier) UnsubscribeEvent(eventName Key) {
	n.mu.Lock()
	defer n.mu.Unlock()

	removed := len(n.subscribers[eventName])
	delete(n.subscribers, eventName)

	if removed > 0 {
		n.logger.Debug("unsubscribed event",
			zap.String("event_name", eventName),
			zap.Int("subscribers", removed),
		)
	}
}

// UnsubscribeSubscriber removes one subscriber, matched by identity.
// No-op if it is not registered.
func (n *Notifier) UnsubscribeSubscriber(subscriber *Subscriber) {
	if subscriber == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	list := n.subscribers[subscriber.eventName]

	// Preserve order
	for i, s := range list {
		if s != subscriber {
			continue
		}
		if len(list) == 1 {
			delete(n.subscribers, subscriber.eventName)
		} else {
			remaining := make([]*Subscriber, 0, len(list)-1)
			remaining = append(remaining, list[:i]...)
			remaining = append(remaining, list[i+1:]...)
			n.subscribers[subscriber.eventName] = remaining
		}

		n.logger.Debug("unsubscribed",
			zap.String("event_name", subscriber.eventName),
			zap.String("subscriber_id", subscriber.id),
		)
		return
	}
}

// Subscribed reports whether eventName has at least one subscriber.
func (n *Notifier) Subscribed(eventName Key) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.subscribers[eventName]) > 0
}

// Start records a start instant with every subscriber of eventName and
// returns the new event id. The id is returned even if nobody is subscribed.
func (n *Notifier) Start(eventName Key) string {
	eventID := n.nextEventID()
	snap := n.snapshot()

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, subscriber := range n.subscribers[eventName] {
		subscriber.start(eventID, snap)
	}

	return eventID
}

// Finish notifies every subscriber of eventName, in registration order,
// that eventID completed. The first subscriber error stops dispatch and is
// returned; later subscribers are not notified of this event.
func (n *Notifier) Finish(eventName Key, eventID, instrumenterID string, payload Payload) error {
	snap := n.snapshot()

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, subscriber := range n.subscribers[eventName] {
		if err := subscriber.finish(eventID, n.id, instrumenterID, snap, payload); err != nil {
			return err
		}
	}

	return nil
}

// Subscribers returns a copy of eventName's subscribers in dispatch order.
func (n *Notifier) Subscribers(eventName Key) []*Subscriber {
	n.mu.Lock()
	defer n.mu.Unlock()

	list := n.subscribers[eventName]
	if len(list) == 0 {
		return nil
	}
	result := make([]*Subscriber, len(list))
	copy(result, list)
	return result
}

// EventNames returns every subscribed event name, sorted.
func (n *Notifier) EventNames() []Key {
	n.mu.Lock()
	names := make([]Key, 0, len(n.subscribers))
	for name := range n.subscribers {
		names = append(names, name)
	}
	n.mu.Unlock()

	slices.Sort(names)
	return names
}

// Pending returns the number of started but unfinished events summed over
// eventName's subscribers.
func (n *Notifier) Pending(eventName Key) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	total := 0
	for _, subscriber := range n.subscribers[eventName] {
		total += subscriber.pending()
	}
	return total
}

// Reset drops every subscription.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.subscribers = make(map[Key][]*Subscriber)
	n.logger.Debug("reset")
}

func (n *Notifier) nextEventID() string {
	if n.tokens != nil {
		return n.tokens.Get()
	}
	return newEventID()
}

// snapshot takes both readings once so every subscriber sees the same instant.
func (n *Notifier) snapshot() Snapshot {
	now := n.clock.Now()
	return Snapshot{
		Wall:      now,
		Monotonic: now.Sub(n.epoch),
	}
}
