package clepsydra

import (
	"sync"
	"sync/atomic"
	"time"
)

// Record is one finished event as observed by one subscriber.
type Record struct {
	Payload  Payload       `json:"payload,omitempty"`
	Start    Instant       `json:"-"`
	Finish   Instant       `json:"-"`
	Event    Event         `json:"event"`
	Duration time.Duration `json:"duration"`
}

// queuedRecord carries the Reset generation a record was collected in.
type queuedRecord struct {
	record     Record
	generation uint64
}

// Collector buffers finished events for batch export.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Collector struct {
	records      []Record
	recordsCh    chan queuedRecord
	stopCh       chan struct{}
	done         chan struct{}
	droppedCount atomic.Int64
	generation   atomic.Uint64 // Bumped by Reset under mu.
	name         string
	mu           sync.Mutex
	closeOnce    sync.Once
	closed       atomic.Bool
	syncMode     atomic.Bool // Bypass channel for synchronous collection.
}

// NewCollector creates a new collector with the specified name and buffer size.
func NewCollector(name string, bufferSize int) *Collector {
	c := &Collector{
		name:      name,
		records:   make([]Record, 0, 8),
		recordsCh: make(chan queuedRecord, bufferSize),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.start()
	return c
}

// Name returns the collector's name.
func (c *Collector) Name() string {
	return c.name
}

func (c *Collector) start() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			// Drain remaining records before shutdown.
			for {
				select {
				case queued := <-c.recordsCh:
					c.bufferQueued(queued)
				default:
					return
				}
			}
		case queued := <-c.recordsCh:
			c.bufferQueued(queued)
		}
	}
}

// Close stops the collector goroutine after draining queued records.
// Buffered records remain available to Export.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)
		select {
		case <-c.done:
		case <-time.After(100 * time.Millisecond):
		}
	})
}

// Listener returns a Listener that feeds this collector.
// It never fails: when the queue is full the record is dropped and counted.
func (c *Collector) Listener() Listener {
	return func(event Event, start, finish Instant, payload Payload) error {
		c.Collect(Record{
			Event:    event,
			Start:    start,
			Finish:   finish,
			Duration: finish.Sub(start),
			Payload:  payload,
		})
		return nil
	}
}

// Collect queues a record. The payload map is copied so later changes by the
// caller are not observed.
func (c *Collector) Collect(record Record) {
	if c.closed.Load() {
		c.droppedCount.Add(1)
		return
	}

	if record.Payload != nil {
		payload := make(Payload, len(record.Payload))
		for k, v := range record.Payload {
			payload[k] = v
		}
		record.Payload = payload
	}

	if c.syncMode.Load() {
		c.buffer(record)
		return
	}

	select {
	case c.recordsCh <- queuedRecord{record: record, generation: c.generation.Load()}:
	default:
		// Channel full - drop record rather than block dispatch.
		c.droppedCount.Add(1)
	}
}

func (c *Collector) buffer(record Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(record)
}

// bufferQueued drops records collected before the latest Reset.
func (c *Collector) bufferQueued(queued queuedRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if queued.generation != c.generation.Load() {
		return
	}
	c.appendLocked(queued.record)
}

func (c *Collector) appendLocked(record Record) {
	if len(c.records) >= cap(c.records) {
		currentCap := cap(c.records)
		var newCap int
		if currentCap < 1024 {
			newCap = currentCap * 2
		} else {
			newCap = currentCap + currentCap/2
		}
		if newCap < 32 {
			newCap = 32
		}
		grown := make([]Record, len(c.records), newCap)
		copy(grown, c.records)
		c.records = grown
	}
	c.records = append(c.records, record)
}

// Export returns all buffered records and clears the buffer.
func (c *Collector) Export() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 {
		return nil
	}

	result := make([]Record, len(c.records))
	copy(result, c.records)

	// Only shrink if buffer is very oversized to avoid allocation churn.
	if cap(c.records) > 256 && len(c.records) < cap(c.records)/8 {
		newCap := cap(c.records) / 4
		if newCap < 32 {
			newCap = 32
		}
		c.records = make([]Record, 0, newCap)
	} else {
		c.records = c.records[:0]
	}

	return result
}

// Count returns the current number of buffered records.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// DroppedCount returns the total number of records dropped.
func (c *Collector) DroppedCount() int64 {
	return c.droppedCount.Load()
}

// SetSyncMode enables synchronous collection, bypassing the queue.
// Makes tests deterministic.
func (c *Collector) SetSyncMode(sync bool) {
	c.syncMode.Store(sync)
}

// Reset clears all buffered records and the drop counter. Records collected
// before Reset that are still queued are discarded too.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation.Add(1)
drain:
	for {
		select {
		case <-c.recordsCh:
		default:
			break drain
		}
	}

	c.records = c.records[:0]
	c.droppedCount.Store(0)
}
