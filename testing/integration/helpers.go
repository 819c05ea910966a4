package integration

import (
	"sync"
	"testing"

	"github.com/zoobzio/clepsydra"
)

// Recorder is a listener that keeps every notification for later assertions.
//
//nolint:govet // Field alignment optimized for test helper readability
type Recorder struct {
	records []clepsydra.Record
	t       *testing.T
	mu      sync.Mutex
}

// NewRecorder creates an empty recorder.
func NewRecorder(t *testing.T) *Recorder {
	return &Recorder{t: t}
}

// Listener returns the recording listener.
func (r *Recorder) Listener() clepsydra.Listener {
	return func(event clepsydra.Event, start, finish clepsydra.Instant, payload clepsydra.Payload) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.records = append(r.records, clepsydra.Record{
			Event:    event,
			Start:    start,
			Finish:   finish,
			Duration: finish.Sub(start),
			Payload:  payload,
		})
		return nil
	}
}

// All returns a copy of every recorded notification.
func (r *Recorder) All() []clepsydra.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]clepsydra.Record, len(r.records))
	copy(all, r.records)
	return all
}

// Count returns the number of recorded notifications.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// AssertCount fails the test unless exactly expected notifications were recorded.
func (r *Recorder) AssertCount(expected int) {
	r.t.Helper()
	if got := r.Count(); got != expected {
		r.t.Errorf("Expected %d notifications, got %d", expected, got)
	}
}

// ByEvent groups recorded notifications by event id.
func (r *Recorder) ByEvent() map[string][]clepsydra.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	grouped := make(map[string][]clepsydra.Record)
	for _, record := range r.records {
		grouped[record.Event.ID] = append(grouped[record.Event.ID], record)
	}
	return grouped
}

// CountingListener returns a listener and a function reporting how many times
// it ran per subscriber id.
func CountingListener() (clepsydra.Listener, func() map[string]int) {
	var mu sync.Mutex
	counts := make(map[string]int)

	listener := func(event clepsydra.Event, _, _ clepsydra.Instant, _ clepsydra.Payload) error {
		mu.Lock()
		counts[event.SubscriberID]++
		mu.Unlock()
		return nil
	}
	snapshot := func() map[string]int {
		mu.Lock()
		defer mu.Unlock()
		out := make(map[string]int, len(counts))
		for k, v := range counts {
			out[k] = v
		}
		return out
	}
	return listener, snapshot
}
