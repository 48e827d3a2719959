package world

import (
	"time"

	"github.com/l1jgo/frontier/internal/clock"
)

// SpawnerKind distinguishes single-actor spawners from packs.
type SpawnerKind int

const (
	KindSolo SpawnerKind = iota
	KindGroup
)

func (k SpawnerKind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "solo"
}

// Slot is one permanently footprinted spawn position.
type Slot struct {
	Index        int
	Footprint    Footprint
	HasFootprint bool // false when no valid 3×3 area was found at init
	Occupant     ActorID
	NextRespawn  clock.Time // clock.None = eligible immediately
}

func (s *Slot) Empty() bool { return s.Occupant.IsZero() }

// Home returns the footprint center as a world position.
func (s *Slot) Home() Vec { return s.Footprint.Center.Vec() }

// Spawner is a named spawn point owning a fixed list of slots. Everything
// except slot occupancy and timers is immutable after construction.
type Spawner struct {
	ID     string
	Kind   SpawnerKind
	Ring   string
	Center Tile
	Radius int32 // anchor search radius for group layouts

	Pool        []string // actor types to draw from
	LevelMin    int
	LevelMax    int
	GroupMin    int
	GroupMax    int
	EliteChance float64
	EliteCap    int
	Respawn     time.Duration // respawn_base

	AggroRadius float64 // 0 = actor type / global default
	LeashRadius float64
	DeaggroPad  float64

	RequiredFlags  []string
	ForbiddenFlags []string
	GateScript     string
	NPE            bool // every pool type is a new-player critter

	Slots    []*Slot
	Disabled bool
}

// AllEmpty reports whether no slot is occupied.
func (s *Spawner) AllEmpty() bool {
	for _, sl := range s.Slots {
		if !sl.Empty() {
			return false
		}
	}
	return true
}

// UsableSlots returns the slots that found a footprint.
func (s *Spawner) UsableSlots() []*Slot {
	out := make([]*Slot, 0, len(s.Slots))
	for _, sl := range s.Slots {
		if sl.HasFootprint {
			out = append(out, sl)
		}
	}
	return out
}

// Occupied returns the number of occupied slots.
func (s *Spawner) Occupied() int {
	n := 0
	for _, sl := range s.Slots {
		if !sl.Empty() {
			n++
		}
	}
	return n
}

// SlotCount is the number of slots the spawner owns: one for solo spawners,
// the maximum group size for packs.
func (s *Spawner) SlotCount() int {
	if s.Kind == KindGroup && s.GroupMax > 0 {
		return s.GroupMax
	}
	return 1
}
