// Package disposition implements the per-actor aggro, leash, disengage and
// retreat decisions. Functions here are called synchronously by the combat
// loop once per frame per live actor; they never block and never fail.
package disposition

import (
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/config"
	"github.com/l1jgo/frontier/internal/core/event"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// MoveFunc advances a onto the straight line toward dst for one frame.
// Implementations must move through State.MoveActor.
type MoveFunc func(a *world.Actor, dst world.Vec, dt time.Duration)

// Engine holds the disposition tuning and the collaborators it reads.
// Single-goroutine access only (game loop).
type Engine struct {
	cfg   config.DispositionConfig
	state *world.State
	bus   *event.Bus
	walk  world.Walkability
	pass  world.Passability
	log   *zap.Logger
}

// walkOnly treats a Walkability without a separate movement notion as its
// own passability.
type walkOnly struct{ world.Walkability }

func (w walkOnly) Passable(x, y int32) bool { return w.Walkable(x, y) }

// NewEngine builds an engine over state. walk picks retreat destinations;
// when it also implements world.Passability, movement uses that instead.
func NewEngine(cfg config.DispositionConfig, state *world.State, bus *event.Bus, walk world.Walkability, log *zap.Logger) *Engine {
	if walk == nil {
		walk = world.OpenGround
	}
	if log == nil {
		log = zap.NewNop()
	}
	pass, ok := walk.(world.Passability)
	if !ok {
		pass = walkOnly{walk}
	}
	return &Engine{cfg: cfg, state: state, bus: bus, walk: walk, pass: pass, log: log}
}

// Config returns the engine tuning.
func (e *Engine) Config() config.DispositionConfig { return e.cfg }

// InitActor seeds aggro/leash radii and the post-spawn grace windows. Radii
// resolve spawner override, then the value already on the actor (from its
// type), then the global default. sp may be nil.
func (e *Engine) InitActor(a *world.Actor, sp *world.Spawner, now clock.Time) {
	pad := e.cfg.DeaggroPad
	if sp != nil {
		if sp.AggroRadius > 0 {
			a.AggroRadius = sp.AggroRadius
		}
		if sp.LeashRadius > 0 {
			a.LeashRadius = sp.LeashRadius
		}
		if sp.DeaggroPad > 0 {
			pad = sp.DeaggroPad
		}
		if sp.NPE {
			a.Passive = true
		}
	}
	if a.AggroRadius <= 0 {
		a.AggroRadius = e.cfg.DefaultAggroRadius
	}
	if a.LeashRadius <= 0 {
		a.LeashRadius = e.cfg.DefaultLeashRadius
	}
	if a.Passive {
		a.AggroRadius = 0
	}
	a.DeaggroRadius = a.AggroRadius + pad

	a.State = world.Unaware
	a.Target = 0
	a.OutOfRangeSince = clock.None
	a.BrokenOffUntil = clock.None
	a.AttackLockUntil = clock.None
	a.RetreatReason = world.ReasonNone
	a.RetreatStartedAt = clock.None
	a.SpawnImmuneUntil = now.Add(e.cfg.SpawnImmunity)
	a.SettleUntil = now.Add(e.cfg.SettleWindow)
	a.DeathHandled = false
}

// CanAggro reports whether a may newly aggro. Spawn immunity and settle do
// not block this; only retreat and the broken-off cooldown do.
func (e *Engine) CanAggro(a *world.Actor, now clock.Time) bool {
	if a.Passive || a.AggroRadius <= 0 || !a.Alive() || a.Retreating() {
		return false
	}
	return a.BrokenOffUntil.Reached(now)
}

// InAggroRange reports whether p is inside a's detection radius.
func (e *Engine) InAggroRange(a *world.Actor, p *world.Player) bool {
	if p == nil || p.Dead {
		return false
	}
	return a.Pos.Dist(p.Pos) <= a.AggroRadius
}

// Engage moves a into Engaged against p. It refuses when CanAggro does.
func (e *Engine) Engage(a *world.Actor, p *world.Player, now clock.Time) bool {
	if p == nil || p.Dead || !e.CanAggro(a, now) {
		return false
	}
	a.State = world.Engaged
	a.Target = p.ID
	a.OutOfRangeSince = clock.None
	return true
}

// CheckLeashAndDeaggro returns the reason a must retreat now, or ReasonNone.
// The hard leash is tested first and wins over the soft deaggro check.
// Only Alert and Engaged actors are evaluated. A nil or dead player counts
// as out of range.
func (e *Engine) CheckLeashAndDeaggro(a *world.Actor, p *world.Player, now clock.Time) world.RetreatReason {
	if a.State != world.Alert && a.State != world.Engaged {
		return world.ReasonNone
	}

	if a.HasHome && a.Pos.Dist(a.Home) > a.LeashRadius {
		return world.ReasonLeash
	}

	outOfRange := p == nil || p.Dead || a.Pos.Dist(p.Pos) > a.DeaggroRadius
	if !outOfRange {
		a.OutOfRangeSince = clock.None
		return world.ReasonNone
	}
	if !a.OutOfRangeSince.IsSet() {
		a.OutOfRangeSince = now
		return world.ReasonNone
	}
	if now.Sub(a.OutOfRangeSince) > e.cfg.LostGrace {
		return world.ReasonLost
	}
	return world.ReasonNone
}

// ShouldBreakOffFromGuards reports whether a living guard inside the threat
// radius outlevels a by at least the configured delta.
func (e *Engine) ShouldBreakOffFromGuards(a *world.Actor, guards []*world.Guard) bool {
	for _, g := range guards {
		if g == nil || g.Dead {
			continue
		}
		if g.Level-a.Level < e.cfg.GuardLevelDelta {
			continue
		}
		if a.Pos.Dist(g.Pos) <= e.cfg.GuardThreatRadius {
			return true
		}
	}
	return false
}
