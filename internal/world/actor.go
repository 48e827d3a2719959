package world

import (
	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/core/ecs"
)

// ActorID identifies a live actor. Generational, so a slot holding the ID of
// a dead actor can never match the actor that replaced it.
type ActorID = ecs.EntityID

// Disposition is the actor's aggro state.
type Disposition int

const (
	Unaware Disposition = iota
	Alert
	Engaged
	Retreating
	Dead
)

func (d Disposition) String() string {
	switch d {
	case Unaware:
		return "unaware"
	case Alert:
		return "alert"
	case Engaged:
		return "engaged"
	case Retreating:
		return "retreating"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// RetreatReason says why an actor disengaged. Values are ordered by urgency;
// a more urgent reason may overwrite a less urgent one mid-retreat.
type RetreatReason int

const (
	ReasonNone RetreatReason = iota
	ReasonLost               // player stayed beyond deaggro radius past the grace period
	ReasonLeash              // actor strayed beyond leash radius from home
	ReasonGuards             // a much stronger guard is nearby
)

func (r RetreatReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonLost:
		return "lost"
	case ReasonLeash:
		return "leash"
	case ReasonGuards:
		return "guards"
	}
	return "unknown"
}

// Urgency ranks reasons for upgrade decisions.
func (r RetreatReason) Urgency() int { return int(r) }

// Timed is an expiring status with an optional magnitude (slow factor,
// vulnerability multiplier).
type Timed struct {
	Until     clock.Time
	Magnitude float64
}

// Active reports whether the status is in effect at now.
func (t Timed) Active(now clock.Time) bool {
	return t.Until.IsSet() && now < t.Until
}

// StatusEffects is the actor's transient crowd-control record.
type StatusEffects struct {
	Stun   Timed
	Root   Timed
	Slow   Timed
	Vuln   Timed
	Immune Timed
}

func clearedStatus() StatusEffects {
	none := Timed{Until: clock.None}
	return StatusEffects{Stun: none, Root: none, Slow: none, Vuln: none, Immune: none}
}

// Actor is a live hostile or neutral creature. Every field is always
// present; NewActor sets the defaults, so no code checks for "missing"
// bookkeeping.
// Accessed only from the game loop goroutine, no locks.
type Actor struct {
	ID      ActorID
	Type    string
	Level   int
	Elite   bool
	Passive bool   // new-player critter: never aggroes
	GroupID uint64 // 0 for solo spawns; shared by all members of one group spawn

	Pos     Vec
	Home    Vec // footprint center of the owning slot
	HasHome bool
	HP      float64
	MaxHP   float64

	State Disposition

	AggroRadius   float64
	DeaggroRadius float64
	LeashRadius   float64

	Target           uint64 // player ID being pursued, 0 when none
	OutOfRangeSince  clock.Time
	BrokenOffUntil   clock.Time
	AttackLockUntil  clock.Time
	SpawnImmuneUntil clock.Time
	SettleUntil      clock.Time

	RetreatReason    RetreatReason
	RetreatDest      Vec
	RetreatStartedAt clock.Time

	Status StatusEffects

	DeathHandled bool

	SpawnerID string
	SlotIndex int
}

// NewActor returns an actor with every timer unset and the slot back-reference filled in.
func NewActor(typ string, level int, maxHP float64, ref SlotRef) *Actor {
	return &Actor{
		Type:             typ,
		Level:            level,
		HP:               maxHP,
		MaxHP:            maxHP,
		State:            Unaware,
		OutOfRangeSince:  clock.None,
		BrokenOffUntil:   clock.None,
		AttackLockUntil:  clock.None,
		SpawnImmuneUntil: clock.None,
		SettleUntil:      clock.None,
		RetreatStartedAt: clock.None,
		Status:           clearedStatus(),
		SpawnerID:        ref.SpawnerID,
		SlotIndex:        ref.Slot,
	}
}

func (a *Actor) Alive() bool      { return a.State != Dead && a.HP > 0 }
func (a *Actor) Retreating() bool { return a.State == Retreating }

// ClearStatus drops every crowd-control record.
func (a *Actor) ClearStatus() {
	a.Status = clearedStatus()
}
