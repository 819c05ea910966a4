package clepsydra

import (
	"time"
)

// Snapshot holds one wall-clock and one monotonic reading taken together.
// A single snapshot is shared by every subscriber of one Start or Finish call.
type Snapshot struct {
	Wall      time.Time
	Monotonic time.Duration
}

// Instant is the time a subscriber observed for a start or finish.
// It carries either a wall-clock time or a monotonic offset, never both,
// depending on how the subscriber was registered.
type Instant struct {
	wall      time.Time
	mono      time.Duration
	monotonic bool
}

func instantFrom(snap Snapshot, monotonic bool) Instant {
	if monotonic {
		return Instant{mono: snap.Monotonic, monotonic: true}
	}
	return Instant{wall: snap.Wall}
}

// IsMonotonic reports whether the instant is a monotonic reading.
func (i Instant) IsMonotonic() bool {
	return i.monotonic
}

// Time returns the wall-clock reading. Zero for monotonic instants.
func (i Instant) Time() time.Time {
	return i.wall
}

// Elapsed returns the monotonic reading, the time elapsed since the
// notifier was created. Zero for wall-clock instants.
func (i Instant) Elapsed() time.Duration {
	return i.mono
}

// Sub returns the duration i-u. Both instants must come from the same clock.
func (i Instant) Sub(u Instant) time.Duration {
	if i.monotonic {
		return i.mono - u.mono
	}
	return i.wall.Sub(u.wall)
}

// String renders the reading.
func (i Instant) String() string {
	if i.monotonic {
		return i.mono.String()
	}
	return i.wall.String()
}
