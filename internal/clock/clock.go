package clock

import (
	"math"
	"time"
)

// Time is a point on the simulation's monotonic timeline, in milliseconds
// since the clock was started. It is never a wall-clock value; wall-clock
// timestamps enter the simulation only through Normalizer.
type Time int64

// None marks an unset timestamp field (timer not armed, window never opened).
const None Time = math.MinInt64

// IsSet reports whether t holds a real timestamp.
func (t Time) IsSet() bool { return t != None }

// Add returns t shifted by d. Adding to None yields None.
func (t Time) Add(d time.Duration) Time {
	if t == None {
		return None
	}
	return t + Time(d.Milliseconds())
}

// Sub returns the duration t-u. Either side unset yields 0.
func (t Time) Sub(u Time) time.Duration {
	if t == None || u == None {
		return 0
	}
	return time.Duration(t-u) * time.Millisecond
}

// Before reports whether t is strictly earlier than u. An unset t is before
// everything, so "now.Before(deadline)" is false for an unset deadline.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool { return t > u }

// Reached reports whether the deadline t has elapsed at now. Unset deadlines
// count as elapsed.
func (t Time) Reached(now Time) bool { return t == None || now >= t }

// Millis returns t as a plain millisecond count.
func (t Time) Millis() int64 { return int64(t) }

// Clock supplies the monotonic simulation time.
type Clock interface {
	Now() Time
}

// Monotonic reads the process monotonic clock. Time zero is the moment the
// clock was created.
type Monotonic struct {
	start time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns the elapsed simulation time. time.Since uses the monotonic
// reading embedded in start, so wall-clock jumps do not affect it.
func (m *Monotonic) Now() Time {
	return Time(time.Since(m.start).Milliseconds())
}

// WallEpoch returns the wall-clock instant (unix ms) that corresponds to
// simulation time zero.
func (m *Monotonic) WallEpoch() int64 {
	return m.start.UnixMilli()
}

// Manual is a hand-driven clock for tests and offline replays.
// Single-goroutine access only.
type Manual struct {
	now Time
}

func NewManual(start Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() Time { return m.now }

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) Time {
	m.now = m.now.Add(d)
	return m.now
}

// Set jumps the clock to t.
func (m *Manual) Set(t Time) { m.now = t }
