package system

import (
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/disposition"
	"github.com/l1jgo/frontier/internal/spawn"
	"github.com/l1jgo/frontier/internal/world"
)

// meleeRange is how close a chasing actor gets before it stops closing in.
const meleeRange = 1.0

// DispositionSystem is the per-frame combat driver: it notices the player,
// chases, checks guard breakoff and the leash/deaggro rules, runs retreats
// and reports deaths to the spawn director. Phase 2 (Disposition).
type DispositionSystem struct {
	world    *world.State
	disp     *disposition.Engine
	director *spawn.Director
	clk      clock.Clock
	move     disposition.MoveFunc
}

func NewDispositionSystem(ws *world.State, disp *disposition.Engine, d *spawn.Director, clk clock.Clock) *DispositionSystem {
	return &DispositionSystem{
		world:    ws,
		disp:     disp,
		director: d,
		clk:      clk,
		move:     disp.StraightMover(disp.Config().MoveSpeed, clk.Now),
	}
}

func (s *DispositionSystem) Phase() coresys.Phase { return coresys.PhaseDisposition }

func (s *DispositionSystem) Update(dt time.Duration) {
	now := s.clk.Now()
	player := s.world.Player
	s.world.EachActor(func(a *world.Actor) {
		s.step(a, player, now, dt)
	})
}

func (s *DispositionSystem) step(a *world.Actor, p *world.Player, now clock.Time, dt time.Duration) {
	if a.HP <= 0 {
		s.director.OnActorDeath(a)
		return
	}

	switch a.State {
	case world.Retreating:
		s.disp.ProcessRetreat(a, s.move, now, dt)

	case world.Unaware:
		if s.disp.CanAggro(a, now) && s.disp.InAggroRange(a, p) {
			a.State = world.Alert
			a.Target = p.ID
		}

	case world.Alert, world.Engaged:
		if s.disp.ShouldBreakOffFromGuards(a, s.world.Guards) {
			s.disp.StartPackRetreat(a, now, world.ReasonGuards)
			return
		}
		if reason := s.disp.CheckLeashAndDeaggro(a, p, now); reason != world.ReasonNone {
			s.disp.StartRetreat(a, now, reason)
			return
		}
		if a.State == world.Alert && !s.disp.Engage(a, p, now) {
			return
		}
		if p != nil && !p.Dead && a.Pos.Dist(p.Pos) > meleeRange {
			s.move(a, p.Pos, dt)
		}
	}
}

// DamageActor applies player damage to an actor and returns what landed.
// Spawn immunity and vulnerability are honoured; death is reported on the
// actor's next frame.
func (s *DispositionSystem) DamageActor(id world.ActorID, raw float64) float64 {
	a, ok := s.world.Actor(id)
	if !ok || !a.Alive() {
		return 0
	}
	dmg := s.disp.DamageTaken(a, s.clk.Now(), raw)
	a.HP -= dmg
	return dmg
}
