package disposition

import (
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/world"
)

// StatusKind selects one entry of the actor's status-effect record.
type StatusKind int

const (
	StatusStun StatusKind = iota
	StatusRoot
	StatusSlow
	StatusVuln
	StatusImmune
)

func (k StatusKind) String() string {
	switch k {
	case StatusStun:
		return "stun"
	case StatusRoot:
		return "root"
	case StatusSlow:
		return "slow"
	case StatusVuln:
		return "vuln"
	case StatusImmune:
		return "immune"
	}
	return "unknown"
}

func statusSlot(a *world.Actor, k StatusKind) *world.Timed {
	switch k {
	case StatusStun:
		return &a.Status.Stun
	case StatusRoot:
		return &a.Status.Root
	case StatusSlow:
		return &a.Status.Slow
	case StatusVuln:
		return &a.Status.Vuln
	case StatusImmune:
		return &a.Status.Immune
	}
	return nil
}

// ApplyStatus applies an effect lasting d. Crowd control is refused while
// the actor cannot take damage (spawn immunity or an active Immune); the
// Immune effect itself always applies. A longer running effect of the same
// kind is kept, the larger magnitude wins.
func (e *Engine) ApplyStatus(a *world.Actor, k StatusKind, now clock.Time, d time.Duration, magnitude float64) bool {
	slot := statusSlot(a, k)
	if slot == nil || !a.Alive() {
		return false
	}
	if k != StatusImmune && !e.CanTakeDamage(a, now) {
		return false
	}
	until := now.Add(d)
	if slot.Active(now) {
		slot.Until = later(slot.Until, until)
		if magnitude > slot.Magnitude {
			slot.Magnitude = magnitude
		}
		return true
	}
	*slot = world.Timed{Until: until, Magnitude: magnitude}
	return true
}

// CanTakeDamage reports whether damage and crowd control land on a.
func (e *Engine) CanTakeDamage(a *world.Actor, now clock.Time) bool {
	if !a.Alive() {
		return false
	}
	if a.SpawnImmuneUntil.IsSet() && now.Before(a.SpawnImmuneUntil) {
		return false
	}
	return !a.Status.Immune.Active(now)
}

// CanAttack reports whether a may start an attack: not retreating, past the
// attack lockout and settle windows, and not stunned.
func (e *Engine) CanAttack(a *world.Actor, now clock.Time) bool {
	if !a.Alive() || a.Retreating() {
		return false
	}
	if !a.AttackLockUntil.Reached(now) || !a.SettleUntil.Reached(now) {
		return false
	}
	return !a.Status.Stun.Active(now)
}

// SpeedFactor scales movement: 0 when stunned or rooted, reduced by an
// active slow's magnitude, 1 otherwise.
func (e *Engine) SpeedFactor(a *world.Actor, now clock.Time) float64 {
	if a.Status.Stun.Active(now) || a.Status.Root.Active(now) {
		return 0
	}
	if a.Status.Slow.Active(now) {
		f := 1 - a.Status.Slow.Magnitude
		if f < 0 {
			return 0
		}
		return f
	}
	return 1
}

// DamageTaken returns raw damage scaled by an active vulnerability, or 0
// when a cannot take damage.
func (e *Engine) DamageTaken(a *world.Actor, now clock.Time, raw float64) float64 {
	if !e.CanTakeDamage(a, now) {
		return 0
	}
	if a.Status.Vuln.Active(now) {
		return raw * (1 + a.Status.Vuln.Magnitude)
	}
	return raw
}
