package clock

import (
	"go.uber.org/zap"
)

// wallThresholdMs separates the two timestamp bases. Monotonic simulation
// times stay far below it (it is ~31 years of uptime); unix-millisecond
// wall-clock values have been above it since September 2001.
const wallThresholdMs int64 = 1_000_000_000_000

// Normalizer converts timestamps that arrive from a foreign base (unix
// milliseconds, typically from storage written by an earlier process) onto
// the simulation's monotonic timeline.
//
// Detection is by magnitude: a value above wallThresholdMs is wall-clock; a
// value below -wallThresholdMs is a wall-clock value that was converted
// twice. Both are corrected and reported once per field name.
// Single-goroutine access only (game loop).
type Normalizer struct {
	wallEpochMs int64 // unix ms at simulation time zero
	log         *zap.Logger
	warned      map[string]struct{}
}

func NewNormalizer(wallEpochMs int64, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		wallEpochMs: wallEpochMs,
		log:         log,
		warned:      make(map[string]struct{}),
	}
}

// FromWall converts a unix-millisecond wall-clock value to simulation time.
func (n *Normalizer) FromWall(unixMs int64) Time {
	return Time(unixMs - n.wallEpochMs)
}

// ToWall converts a simulation time to unix milliseconds for storage.
// None stays None.
func (n *Normalizer) ToWall(t Time) int64 {
	if t == None {
		return int64(None)
	}
	return int64(t) + n.wallEpochMs
}

// FromStoredWall converts a value read from a column that is always written
// with ToWall. Wall-clock values convert silently; None stays None. Anything
// else is not in the column's base and is normalized with the one-time
// warning for field.
func (n *Normalizer) FromStoredWall(field string, raw int64) Time {
	switch {
	case raw == int64(None):
		return None
	case raw > wallThresholdMs:
		return n.FromWall(raw)
	case raw < -wallThresholdMs:
		n.warnOnce(field, raw, "double_converted")
		return Time(raw + n.wallEpochMs)
	}
	n.warnOnce(field, raw, "simulation_base")
	return Time(raw)
}

// IsForeign reports whether raw cannot be a simulation-base timestamp.
func IsForeign(raw int64) bool {
	if raw == int64(None) {
		return false
	}
	return raw > wallThresholdMs || raw < -wallThresholdMs
}

// Normalize returns raw as a simulation Time, converting it if it is from
// the wall-clock base. field names the stored value for the one-time warning.
func (n *Normalizer) Normalize(field string, raw int64) Time {
	switch {
	case raw == int64(None):
		return None
	case raw > wallThresholdMs:
		n.warnOnce(field, raw, "wall_clock")
		return n.FromWall(raw)
	case raw < -wallThresholdMs:
		n.warnOnce(field, raw, "double_converted")
		return Time(raw + n.wallEpochMs)
	}
	return Time(raw)
}

func (n *Normalizer) warnOnce(field string, raw int64, kind string) {
	if _, seen := n.warned[field]; seen {
		return
	}
	n.warned[field] = struct{}{}
	n.log.Warn("foreign timestamp base normalized",
		zap.String("field", field),
		zap.Int64("raw", raw),
		zap.String("kind", kind))
}
