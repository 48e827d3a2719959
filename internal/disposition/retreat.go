package disposition

import (
	"math"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/core/event"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// StartRetreat disengages a and sends it home. Calling it on an actor that
// is already retreating changes nothing, except that ReasonGuards upgrades a
// less urgent reason and extends the broken-off window.
func (e *Engine) StartRetreat(a *world.Actor, now clock.Time, reason world.RetreatReason) {
	if a.State == world.Dead {
		return
	}
	if a.Retreating() {
		if reason == world.ReasonGuards && a.RetreatReason.Urgency() < reason.Urgency() {
			a.RetreatReason = reason
			a.BrokenOffUntil = later(a.BrokenOffUntil, now.Add(e.cfg.BrokenOff+e.cfg.GuardExtension))
			event.Emit(e.bus, event.ActorDisengaged{Actor: a.ID, Reason: reason.String(), At: now})
			e.log.Debug("retreat upgraded",
				zap.Uint64("actor", uint64(a.ID)),
				zap.Stringer("reason", reason),
			)
		}
		return
	}

	a.State = world.Retreating
	a.Target = 0
	a.OutOfRangeSince = clock.None
	a.RetreatReason = reason
	a.RetreatStartedAt = now
	a.RetreatDest = e.destination(a)
	a.AttackLockUntil = now.Add(e.cfg.AttackLockout)

	ext := e.cfg.BrokenOff
	if reason == world.ReasonGuards {
		ext += e.cfg.GuardExtension
	}
	a.BrokenOffUntil = later(a.BrokenOffUntil, now.Add(ext))

	event.Emit(e.bus, event.ActorDisengaged{Actor: a.ID, Reason: reason.String(), At: now})
	e.log.Debug("retreat started",
		zap.Uint64("actor", uint64(a.ID)),
		zap.Stringer("reason", reason),
		zap.Float64("dest_x", a.RetreatDest.X),
		zap.Float64("dest_y", a.RetreatDest.Y),
	)
}

// StartPackRetreat retreats a and then every living, non-retreating member
// of its group. Each member heads for its own home. Returns how many actors
// started retreating.
func (e *Engine) StartPackRetreat(a *world.Actor, now clock.Time, reason world.RetreatReason) int {
	n := 0
	if a.State != world.Dead && !a.Retreating() {
		n++
	}
	e.StartRetreat(a, now, reason)
	for _, m := range e.state.GroupMembers(a.GroupID) {
		if m.ID == a.ID || !m.Alive() || m.Retreating() {
			continue
		}
		e.StartRetreat(m, now, reason)
		n++
	}
	return n
}

// destination resolves where a retreats to: its own home point, or the
// nearest free tile around it when another actor stands on or is heading to
// the home tile. Without a home the current position is used.
func (e *Engine) destination(a *world.Actor) world.Vec {
	if !a.HasHome {
		e.log.Debug("retreat without home, holding position", zap.Uint64("actor", uint64(a.ID)))
		return a.Pos
	}
	home := a.Home.Tile()
	if !e.state.HomeBlocked(home, a.ID) {
		return a.Home
	}
	t, ok := world.Spiral(home, e.cfg.HomeSearchRadius, func(t world.Tile) bool {
		return e.walk.Walkable(t.X, t.Y) && !e.state.HomeBlocked(t, a.ID)
	})
	if !ok {
		return a.Home
	}
	return t.Vec()
}

// ProcessRetreat advances one retreat frame: regen, movement, stuck
// recovery and arrival. It returns true while a is still retreating.
func (e *Engine) ProcessRetreat(a *world.Actor, move MoveFunc, now clock.Time, dt time.Duration) bool {
	if !a.Retreating() {
		return false
	}

	if dt > 0 && a.HP < a.MaxHP {
		a.HP += a.MaxHP * e.cfg.RetreatRegenPerSec * dt.Seconds()
		if a.HP > a.MaxHP {
			a.HP = a.MaxHP
		}
	}

	if a.RetreatStartedAt.IsSet() && now.Sub(a.RetreatStartedAt) > e.cfg.RetreatTimeout {
		e.state.MoveActor(a, a.RetreatDest)
		e.log.Debug("retreat timed out, snapped home", zap.Uint64("actor", uint64(a.ID)))
		e.Reset(a, now)
		return false
	}

	if move != nil && a.Pos.Dist(a.RetreatDest) > e.cfg.ArrivalEpsilon {
		move(a, a.RetreatDest, dt)
	}

	if a.Pos.Dist(a.RetreatDest) <= e.cfg.ArrivalEpsilon {
		e.Reset(a, now)
		return false
	}
	return true
}

// Reset returns a to a fresh, unaware state at home. The broken-off window
// is left to expire on its own.
func (e *Engine) Reset(a *world.Actor, now clock.Time) {
	a.State = world.Unaware
	a.Target = 0
	a.OutOfRangeSince = clock.None
	a.AttackLockUntil = clock.None
	a.RetreatReason = world.ReasonNone
	a.RetreatDest = world.Vec{}
	a.RetreatStartedAt = clock.None
	a.HP = a.MaxHP
	a.SpawnImmuneUntil = now.Add(e.cfg.SpawnImmunity)
	a.SettleUntil = now.Add(e.cfg.SettleWindow)
	a.DeathHandled = false
	a.ClearStatus()

	event.Emit(e.bus, event.ActorReset{Actor: a.ID, At: now})
	e.log.Debug("actor reset at home", zap.Uint64("actor", uint64(a.ID)))
}

// pathSample is the spacing, in tiles, at which a step is checked for
// impassable ground.
const pathSample = 0.5

// StraightMover returns a MoveFunc that walks in a straight line at speed
// tiles per second, scaled by the actor's slow/root/stun state. The actor
// stops short of the first impassable tile on the line; a retreat stuck that
// way ends through the retreat timeout.
func (e *Engine) StraightMover(speed float64, now func() clock.Time) MoveFunc {
	return func(a *world.Actor, dst world.Vec, dt time.Duration) {
		step := speed * dt.Seconds() * e.SpeedFactor(a, now())
		if step <= 0 {
			return
		}
		next := e.clearTo(a.Pos, a.Pos.Toward(dst, step))
		if next != a.Pos {
			e.state.MoveActor(a, next)
		}
	}
}

// clearTo returns the farthest point on from->to reachable without entering
// an impassable tile. The tile under from is never checked, so an actor
// placed on bad ground can still walk off it.
func (e *Engine) clearTo(from, to world.Vec) world.Vec {
	d := from.Dist(to)
	n := int(math.Ceil(d / pathSample))
	start := from.Tile()
	last := from
	for i := 1; i <= n; i++ {
		p := from.Toward(to, d*float64(i)/float64(n))
		if t := p.Tile(); t != start && !e.pass.Passable(t.X, t.Y) {
			return last
		}
		last = p
	}
	return to
}

func later(a, b clock.Time) clock.Time {
	if !a.IsSet() || b.After(a) {
		return b
	}
	return a
}
