package clepsydra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// resetDefault clears the process-wide notifier between tests.
func resetDefault(t *testing.T) {
	t.Helper()
	Default().Reset()
	t.Cleanup(Default().Reset)
}

func TestDefaultIsSingleton(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[*Notifier]struct{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := Default()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1 {
		t.Errorf("Expected one notifier across goroutines, got %d", len(seen))
	}
}

func TestWithInstrumenterPerContext(t *testing.T) {
	ids := make(map[string]struct{})
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := WithInstrumenter(context.Background())
			id := InstrumenterFrom(ctx).ID()
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 10 {
		t.Errorf("Expected 10 instrumenters, got %d", len(ids))
	}
	for id := range ids {
		if !regexpMatch(`^instrumenter_[0-9a-z]{10}$`, id) {
			t.Errorf("Unexpected instrumenter id %s", id)
		}
	}
}

func TestWithInstrumenterIdempotent(t *testing.T) {
	ctx := WithInstrumenter(context.Background())
	again := WithInstrumenter(ctx)

	if ctx != again {
		t.Error("Expected already bound context to be returned unchanged")
	}
	if InstrumenterFrom(ctx) != InstrumenterFrom(again) {
		t.Error("Expected the same instrumenter")
	}
}

func TestInstrumenterFromUnboundContext(t *testing.T) {
	first := InstrumenterFrom(context.Background())
	second := InstrumenterFrom(context.TODO())

	if first == nil || first != second {
		t.Error("Expected unbound contexts to share the root instrumenter")
	}

	foreign := ContextWithInstrumenter(context.Background(), NewInstrumenter(New()))
	if InstrumenterFrom(foreign) != first {
		t.Error("Expected an instrumenter of another notifier to be ignored")
	}
}

func TestFacadeSubscribe(t *testing.T) {
	resetDefault(t)

	if _, err := Subscribe("foo", nil); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("Expected ErrInvalidSubscription, got %v", err)
	}
	if _, err := MonotonicSubscribe("foo-monotonic", nil); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("Expected ErrInvalidSubscription, got %v", err)
	}

	s, err := Subscribe("foo", noopListener)
	if err != nil {
		t.Fatal(err)
	}
	m, err := MonotonicSubscribe("foo-monotonic", noopListener)
	if err != nil {
		t.Fatal(err)
	}

	if s.Monotonic() || !m.Monotonic() {
		t.Error("Unexpected monotonic flags")
	}
	if !Subscribed("foo") || !Subscribed("foo-monotonic") {
		t.Error("Expected both events to be subscribed")
	}

	Unsubscribe(s)
	UnsubscribeAll("foo-monotonic")

	if Subscribed("foo") || Subscribed("foo-monotonic") {
		t.Error("Expected both events to be unsubscribed")
	}
}

func TestFacadeInstrumentNotSubscribed(t *testing.T) {
	resetDefault(t)

	payload := Payload{"name": "foo", "time": time.Now()}
	var got Payload
	err := Instrument(context.Background(), "foo", payload, func(p Payload) error {
		got = p
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "foo" {
		t.Error("Expected block to receive the caller's payload")
	}

	if err := Instrument(context.Background(), "foo", nil, nil); err != nil {
		t.Errorf("Expected nil block without subscribers to be a no-op, got %v", err)
	}

	blockErr := errors.New("unwatched failure")
	if err := Instrument(context.Background(), "foo", nil, func(Payload) error { return blockErr }); err != blockErr {
		t.Errorf("Expected block error returned, got %v", err)
	}
	if _, ok := payload[PayloadException]; ok {
		t.Error("Unwatched instrumentation must not touch the payload")
	}
}

func TestFacadeInstrumentWithoutBlockNotifies(t *testing.T) {
	resetDefault(t)

	var mu sync.Mutex
	events := make(map[string]struct{})
	instrumenters := make(map[string]struct{})
	subscribers := make(map[string]struct{})
	listener := func(e Event, _, _ Instant, _ Payload) error {
		mu.Lock()
		defer mu.Unlock()
		events[e.ID] = struct{}{}
		instrumenters[e.InstrumenterID] = struct{}{}
		subscribers[e.SubscriberID] = struct{}{}
		return nil
	}
	for i := 0; i < 2; i++ {
		if _, err := Subscribe("foo", listener); err != nil {
			t.Fatal(err)
		}
		if _, err := MonotonicSubscribe("foo", listener); err != nil {
			t.Fatal(err)
		}
	}

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			return Instrument(WithInstrumenter(context.Background()), "foo", nil, nil)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if len(events) != 5 {
		t.Errorf("Expected 5 events, got %d", len(events))
	}
	if len(instrumenters) != 5 {
		t.Errorf("Expected 5 instrumenters, got %d", len(instrumenters))
	}
	if len(subscribers) != 4 {
		t.Errorf("Expected 4 subscribers, got %d", len(subscribers))
	}
}

func TestFacadeInstrumentBlockError(t *testing.T) {
	resetDefault(t)

	var wall, mono Payload
	if _, err := Subscribe("foo", func(_ Event, _, _ Instant, p Payload) error { wall = p; return nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := MonotonicSubscribe("foo", func(_ Event, _, _ Instant, p Payload) error { mono = p; return nil }); err != nil {
		t.Fatal(err)
	}

	blockErr := errors.New("Exception!")
	err := Instrument(context.Background(), "foo", nil, func(Payload) error { return blockErr })

	if err != blockErr {
		t.Errorf("Expected original error, got %v", err)
	}
	for _, p := range []Payload{wall, mono} {
		if p[PayloadException] != blockErr || p[PayloadExceptionMessage] != "Exception!" {
			t.Errorf("Expected exception details in payload, got %v", p)
		}
	}
}

func TestFacadeInstrumentSums(t *testing.T) {
	resetDefault(t)

	var mu sync.Mutex
	sum, sumMonotonic := 0, 0
	add := func(target *int) Listener {
		return func(_ Event, _, _ Instant, p Payload) error {
			mu.Lock()
			*target += p["num"].(int)
			mu.Unlock()
			return nil
		}
	}
	for _, name := range []Key{"foo", "bar"} {
		if _, err := Subscribe(name, add(&sum)); err != nil {
			t.Fatal(err)
		}
		if _, err := MonotonicSubscribe(name, add(&sumMonotonic)); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 100; i++ {
		var g errgroup.Group
		for j := 0; j < 10; j++ {
			g.Go(func() error {
				ctx := WithInstrumenter(context.Background())
				for _, name := range []Key{"foo", "bar"} {
					err := Instrument(ctx, name, nil, func(p Payload) error {
						p["num"] = i + j + 2
						return nil
					})
					if err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
	}

	if sum != 112_000 || sumMonotonic != 112_000 {
		t.Errorf("Expected both sums to be 112000, got %d and %d", sum, sumMonotonic)
	}
}

func TestFacadeStartFinish(t *testing.T) {
	resetDefault(t)
	ctx := WithInstrumenter(context.Background())

	if id, ok := Start(ctx, "foo"); ok || id != "" {
		t.Errorf("Expected no event without subscribers, got %q", id)
	}
	if err := Finish(ctx, "foo", "foo-id", nil); err != nil {
		t.Errorf("Expected finish without subscribers to be a no-op, got %v", err)
	}

	var got Event
	var gotPayload Payload
	if _, err := Subscribe("foo", func(e Event, _, _ Instant, p Payload) error {
		got = e
		gotPayload = p
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := Finish(ctx, "foo", "foo-id", nil); !errors.Is(err, ErrNoSuchEvent) {
		t.Errorf("Expected ErrNoSuchEvent, got %v", err)
	}

	eventID, ok := Start(ctx, "foo")
	if !ok || !regexpMatch(`^event_[0-9a-z]{10}$`, eventID) {
		t.Fatalf("Unexpected start result %q %v", eventID, ok)
	}
	if err := Finish(ctx, "foo", eventID, nil); err != nil {
		t.Fatal(err)
	}

	if got.ID != eventID || got.InstrumenterID != InstrumenterFrom(ctx).ID() {
		t.Errorf("Unexpected event %+v", got)
	}
	if gotPayload == nil || len(gotPayload) != 0 {
		t.Errorf("Expected empty payload, got %v", gotPayload)
	}
}
