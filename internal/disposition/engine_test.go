package disposition

import (
	"testing"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/config"
	"github.com/l1jgo/frontier/internal/core/event"
	"github.com/l1jgo/frontier/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const t0 = clock.Time(10_000)

func newTestEngine(t *testing.T) (*Engine, *world.State, *event.Bus) {
	t.Helper()
	st := world.NewState(world.Base{}, nil)
	bus := event.NewBus()
	e := NewEngine(config.Default().Disposition, st, bus, nil, zaptest.NewLogger(t))
	return e, st, bus
}

// newTestActor places an actor at pos with its home at home.
func newTestActor(t *testing.T, e *Engine, st *world.State, pos, home world.Vec) *world.Actor {
	t.Helper()
	a := world.NewActor("wolf", 10, 100, world.SlotRef{SpawnerID: "camp", Slot: 0})
	a.Pos = pos
	a.Home = home
	a.HasHome = true
	e.InitActor(a, nil, t0)
	st.AddActor(a)
	return a
}

func noMove(*world.Actor, world.Vec, time.Duration) {}

func at(ms int64) clock.Time { return t0 + clock.Time(ms) }

func TestInitActorRadii(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})
	assert.Equal(t, 7.0, a.AggroRadius)
	assert.Equal(t, 16.0, a.DeaggroRadius)
	assert.Equal(t, 24.0, a.LeashRadius)
	assert.Equal(t, world.Unaware, a.State)
	assert.Equal(t, at(1500), a.SpawnImmuneUntil)
	assert.Equal(t, at(1000), a.SettleUntil)

	sp := &world.Spawner{ID: "camp", AggroRadius: 10, LeashRadius: 30, DeaggroPad: 4}
	e.InitActor(a, sp, t0)
	assert.Equal(t, 10.0, a.AggroRadius)
	assert.Equal(t, 14.0, a.DeaggroRadius)
	assert.Equal(t, 30.0, a.LeashRadius)
}

func TestInitActorPassive(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})
	e.InitActor(a, &world.Spawner{ID: "meadow", NPE: true}, t0)

	assert.True(t, a.Passive)
	assert.Zero(t, a.AggroRadius)
	assert.False(t, e.CanAggro(a, at(60_000)))
}

func TestLeashTakesPriorityOverDeaggro(t *testing.T) {
	e, st, _ := newTestEngine(t)
	home := world.Vec{X: 10, Y: 10}
	a := newTestActor(t, e, st, world.Vec{X: 35, Y: 10}, home)
	p := &world.Player{ID: 1, Pos: world.Vec{X: 40, Y: 10}}
	require.True(t, e.Engage(a, p, at(5000)))

	require.Equal(t, 30.0, p.Pos.Dist(home))
	require.LessOrEqual(t, a.Pos.Dist(p.Pos), a.DeaggroRadius)
	assert.Equal(t, world.ReasonLeash, e.CheckLeashAndDeaggro(a, p, at(5000)))
}

func TestDeaggroHysteresis(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})
	p := &world.Player{ID: 1}
	require.True(t, e.Engage(a, p, t0))
	require.Equal(t, 16.0, a.DeaggroRadius)

	// Oscillating across the deaggro edge never accumulates grace.
	for i := int64(0); i < 20; i++ {
		if i%2 == 0 {
			p.Pos = world.Vec{X: 17}
		} else {
			p.Pos = world.Vec{X: 15}
		}
		assert.Equal(t, world.ReasonNone, e.CheckLeashAndDeaggro(a, p, at(i*1000)), "step %d", i)
	}

	// Holding outside past the grace period is lost.
	p.Pos = world.Vec{X: 17}
	start := int64(30_000)
	assert.Equal(t, world.ReasonNone, e.CheckLeashAndDeaggro(a, p, at(start)))
	assert.Equal(t, world.ReasonNone, e.CheckLeashAndDeaggro(a, p, at(start+3000)))
	assert.Equal(t, world.ReasonLost, e.CheckLeashAndDeaggro(a, p, at(start+3001)))
}

func TestDeaggroIgnoresIdleActors(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 100}, world.Vec{})
	assert.Equal(t, world.ReasonNone, e.CheckLeashAndDeaggro(a, nil, t0))
}

func TestDeadPlayerCountsAsOutOfRange(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})
	p := &world.Player{ID: 1, Pos: world.Vec{X: 2}}
	require.True(t, e.Engage(a, p, t0))
	p.Dead = true

	assert.Equal(t, world.ReasonNone, e.CheckLeashAndDeaggro(a, p, at(0)))
	assert.Equal(t, world.ReasonLost, e.CheckLeashAndDeaggro(a, p, at(4000)))
}

func TestGuardBreakoffThreshold(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})

	cases := []struct {
		name  string
		guard world.Guard
		want  bool
	}{
		{"at radius, delta 5", world.Guard{Pos: world.Vec{X: 8}, Level: 15}, true},
		{"at radius, delta 4", world.Guard{Pos: world.Vec{X: 8}, Level: 14}, false},
		{"outside radius", world.Guard{Pos: world.Vec{X: 8.5}, Level: 30}, false},
		{"dead guard", world.Guard{Pos: world.Vec{X: 1}, Level: 30, Dead: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.guard
			assert.Equal(t, tc.want, e.ShouldBreakOffFromGuards(a, []*world.Guard{&g}))
		})
	}
}

func TestStartRetreatIsIdempotent(t *testing.T) {
	e, st, bus := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 10}, world.Vec{})
	require.True(t, e.Engage(a, &world.Player{ID: 7}, t0))

	e.StartRetreat(a, at(100), world.ReasonLost)
	started := a.RetreatStartedAt
	brokenOff := a.BrokenOffUntil
	assert.Equal(t, world.Retreating, a.State)
	assert.Zero(t, a.Target)
	assert.Equal(t, at(100+750), a.AttackLockUntil)
	assert.Equal(t, at(100+4000), brokenOff)

	e.StartRetreat(a, at(900), world.ReasonLeash)
	assert.Equal(t, started, a.RetreatStartedAt)
	assert.Equal(t, world.ReasonLost, a.RetreatReason, "leash does not upgrade")
	assert.Equal(t, brokenOff, a.BrokenOffUntil)

	disengaged := event.Pending[event.ActorDisengaged](bus)
	require.Len(t, disengaged, 1)
	assert.Equal(t, a.ID, disengaged[0].Actor)
	assert.Equal(t, "lost", disengaged[0].Reason)
}

func TestStartRetreatGuardUpgrade(t *testing.T) {
	e, st, bus := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 10}, world.Vec{})
	e.StartRetreat(a, at(0), world.ReasonLost)
	started := a.RetreatStartedAt

	e.StartRetreat(a, at(500), world.ReasonGuards)
	assert.Equal(t, world.ReasonGuards, a.RetreatReason)
	assert.Equal(t, started, a.RetreatStartedAt)
	assert.Equal(t, at(500+4000+6000), a.BrokenOffUntil)
	assert.Len(t, event.Pending[event.ActorDisengaged](bus), 2)
}

func TestStartRetreatGuardsExtendsBrokenOff(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 10}, world.Vec{})
	e.StartRetreat(a, at(0), world.ReasonGuards)
	assert.Equal(t, at(10_000), a.BrokenOffUntil)
}

func TestPackRetreatUsesOwnHomes(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 20, Y: 20}, world.Vec{X: 0, Y: 0})
	b := newTestActor(t, e, st, world.Vec{X: 21, Y: 20}, world.Vec{X: 4, Y: 0})
	c := newTestActor(t, e, st, world.Vec{X: 22, Y: 20}, world.Vec{X: 8, Y: 0})
	for _, m := range []*world.Actor{a, b, c} {
		m.GroupID = 42
	}
	e.StartRetreat(c, at(0), world.ReasonLost)

	n := e.StartPackRetreat(a, at(100), world.ReasonLeash)
	assert.Equal(t, 2, n, "c was already retreating")

	assert.Equal(t, world.Retreating, b.State)
	assert.Equal(t, a.Home, a.RetreatDest)
	assert.Equal(t, b.Home, b.RetreatDest)
	assert.NotEqual(t, a.RetreatDest, b.RetreatDest)
	assert.Equal(t, world.ReasonLost, c.RetreatReason)
}

func TestRetreatAvoidsBlockedHome(t *testing.T) {
	e, st, _ := newTestEngine(t)
	home := world.Vec{X: 5, Y: 5}
	newTestActor(t, e, st, home, world.Vec{X: 50, Y: 50}) // squatter on the home tile
	a := newTestActor(t, e, st, world.Vec{X: 15, Y: 5}, home)

	e.StartRetreat(a, t0, world.ReasonLost)
	assert.NotEqual(t, home, a.RetreatDest)
	assert.Equal(t, int32(1), world.Chebyshev(home.Tile(), a.RetreatDest.Tile()))

	// A second retreater does not pick the first one's destination.
	b := newTestActor(t, e, st, world.Vec{X: 16, Y: 5}, home)
	e.StartRetreat(b, t0, world.ReasonLost)
	assert.NotEqual(t, a.RetreatDest, b.RetreatDest)
}

func TestRetreatWithoutHomeHoldsPosition(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 3, Y: 4}, world.Vec{})
	a.HasHome = false

	e.StartRetreat(a, t0, world.ReasonLost)
	assert.Equal(t, world.Vec{X: 3, Y: 4}, a.RetreatDest)
}

func TestRetreatRegen(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 20}, world.Vec{})
	a.HP = 50
	e.StartRetreat(a, at(0), world.ReasonLost)

	assert.True(t, e.ProcessRetreat(a, noMove, at(2000), 2*time.Second))
	assert.InDelta(t, 80.0, a.HP, 1e-9)

	a.HP = 95
	assert.True(t, e.ProcessRetreat(a, noMove, at(4000), 2*time.Second))
	assert.Equal(t, 100.0, a.HP)
}

func TestRetreatTimeoutSnapsAndResets(t *testing.T) {
	e, st, bus := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 20}, world.Vec{})
	a.HP = 10
	e.StartRetreat(a, at(0), world.ReasonLeash)

	assert.True(t, e.ProcessRetreat(a, noMove, at(8000), 100*time.Millisecond))
	assert.False(t, e.ProcessRetreat(a, noMove, at(8001), 100*time.Millisecond))

	assert.Equal(t, world.Unaware, a.State)
	assert.Equal(t, a.Home, a.Pos)
	assert.Equal(t, a.MaxHP, a.HP)
	assert.Equal(t, world.ReasonNone, a.RetreatReason)
	assert.False(t, a.RetreatStartedAt.IsSet())
	assert.True(t, st.Occupancy.IsOccupied(world.Tile{}, 0))
	assert.Len(t, event.Pending[event.ActorReset](bus), 1)
}

func TestRetreatArrivalResets(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 4}, world.Vec{})
	e.StartRetreat(a, at(0), world.ReasonLost)
	a.DeathHandled = true
	a.Status.Slow = world.Timed{Until: at(60_000), Magnitude: 0.5}

	now := at(0)
	mover := e.StraightMover(4, func() clock.Time { return now })

	// Slowed to 2 tiles/s: 4 tiles take two one-second frames.
	now = at(1000)
	assert.True(t, e.ProcessRetreat(a, mover, now, time.Second))
	assert.InDelta(t, 2.0, a.Pos.X, 1e-9)

	now = at(2000)
	assert.False(t, e.ProcessRetreat(a, mover, now, time.Second))
	assert.Equal(t, world.Unaware, a.State)
	assert.False(t, a.DeathHandled)
	assert.False(t, a.Status.Slow.Active(now))
	assert.Equal(t, at(2000+1500), a.SpawnImmuneUntil)
	assert.Equal(t, at(2000+1000), a.SettleUntil)
}

// rockColumn is ground with an impassable column at X == int32(r).
type rockColumn int32

func (r rockColumn) Walkable(x, _ int32) bool { return x != int32(r) }
func (r rockColumn) Passable(x, _ int32) bool { return x != int32(r) }

func TestRetreatStopsAtRockThenSnapsOnTimeout(t *testing.T) {
	st := world.NewState(world.Base{}, nil)
	e := NewEngine(config.Default().Disposition, st, event.NewBus(), rockColumn(2), zaptest.NewLogger(t))
	a := newTestActor(t, e, st, world.Vec{X: 4}, world.Vec{})
	e.StartRetreat(a, at(0), world.ReasonLost)

	now := at(0)
	mover := e.StraightMover(4, func() clock.Time { return now })

	now = at(500)
	require.True(t, e.ProcessRetreat(a, mover, now, 500*time.Millisecond))
	assert.InDelta(t, 2.5, a.Pos.X, 1e-9, "stops short of the rock at x=2")

	for ms := int64(1000); ms <= 8000; ms += 1000 {
		now = at(ms)
		require.True(t, e.ProcessRetreat(a, mover, now, time.Second))
		assert.NotEqual(t, int32(2), a.Pos.Tile().X)
	}
	assert.InDelta(t, 2.5, a.Pos.X, 1e-9)
	assert.True(t, st.Occupancy.IsOccupied(world.Tile{X: 3}, 0))

	now = at(8100)
	assert.False(t, e.ProcessRetreat(a, mover, now, 100*time.Millisecond))
	assert.Equal(t, world.Vec{}, a.Pos)
	assert.Equal(t, world.Unaware, a.State)
	assert.True(t, st.Occupancy.IsOccupied(world.Tile{}, 0))
}

func TestMoverWalksOffImpassableStart(t *testing.T) {
	st := world.NewState(world.Base{}, nil)
	e := NewEngine(config.Default().Disposition, st, event.NewBus(), rockColumn(5), zaptest.NewLogger(t))
	a := newTestActor(t, e, st, world.Vec{X: 5}, world.Vec{})
	e.StartRetreat(a, at(0), world.ReasonLost)

	mover := e.StraightMover(4, func() clock.Time { return at(1000) })
	require.True(t, e.ProcessRetreat(a, mover, at(1000), 500*time.Millisecond))
	assert.InDelta(t, 3.0, a.Pos.X, 1e-9)
}

func TestAggroEligibility(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{X: 10}, world.Vec{})

	// Spawn immunity and settle do not block aggro.
	assert.True(t, e.CanAggro(a, t0))
	assert.False(t, e.CanTakeDamage(a, t0))
	assert.False(t, e.CanAttack(a, t0))

	e.StartRetreat(a, at(0), world.ReasonLost)
	assert.False(t, e.CanAggro(a, at(100)))

	e.Reset(a, at(200))
	assert.False(t, e.CanAggro(a, at(300)), "broken-off outlives the reset")
	assert.True(t, e.CanAggro(a, at(4000)))
}

func TestStatusEffects(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a := newTestActor(t, e, st, world.Vec{}, world.Vec{})

	assert.False(t, e.ApplyStatus(a, StatusStun, t0, time.Second, 0), "refused during spawn immunity")
	assert.True(t, e.ApplyStatus(a, StatusImmune, t0, 500*time.Millisecond, 0))

	now := at(2000)
	require.True(t, e.CanTakeDamage(a, now))
	assert.True(t, e.ApplyStatus(a, StatusSlow, now, 2*time.Second, 0.25))
	assert.Equal(t, 0.75, e.SpeedFactor(a, now))

	assert.True(t, e.ApplyStatus(a, StatusRoot, now, time.Second, 0))
	assert.Zero(t, e.SpeedFactor(a, now))
	assert.Equal(t, 0.75, e.SpeedFactor(a, at(3500)))

	assert.True(t, e.ApplyStatus(a, StatusVuln, now, time.Second, 0.5))
	assert.Equal(t, 15.0, e.DamageTaken(a, now, 10))
	assert.Equal(t, 10.0, e.DamageTaken(a, at(3500), 10))

	assert.True(t, e.ApplyStatus(a, StatusStun, now, time.Second, 0))
	assert.True(t, a.SettleUntil.Reached(now))
	assert.False(t, e.CanAttack(a, now))
	assert.True(t, e.CanAttack(a, at(3500)))
}
