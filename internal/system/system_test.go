package system

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/config"
	"github.com/l1jgo/frontier/internal/core/event"
	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/data"
	"github.com/l1jgo/frontier/internal/disposition"
	"github.com/l1jgo/frontier/internal/persist"
	"github.com/l1jgo/frontier/internal/spawn"
	"github.com/l1jgo/frontier/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const frame = 100 * time.Millisecond

type sim struct {
	st     *world.State
	clk    *clock.Manual
	bus    *event.Bus
	dir    *spawn.Director
	combat *DispositionSystem
	runner *coresys.Runner
}

func newTestSim(t *testing.T, defs ...data.SpawnerDef) *sim {
	t.Helper()
	log := zaptest.NewLogger(t)
	cfg := config.Default()
	rings := []*world.Ring{{Name: "frontier", Inner: 20, Outer: 80, Pool: []string{"wolf"}, LevelMin: 3, LevelMax: 5}}
	st := world.NewState(world.Base{}, rings)
	bus := event.NewBus()
	clk := clock.NewManual(0)

	disp := disposition.NewEngine(cfg.Disposition, st, bus, nil, log)
	dir := spawn.NewDirector(cfg.Spawn, spawn.Deps{
		State:  st,
		Disp:   disp,
		Actors: data.NewActorTable([]data.ActorType{{Name: "wolf", HP: 40, HPPerLevel: 10}}),
		Clock:  clk,
		Rand:   rand.New(rand.NewPCG(3, 5)),
		Bus:    bus,
		Log:    log,
	})
	require.NoError(t, dir.Init(defs))

	combat := NewDispositionSystem(st, disp, dir, clk)
	runner := coresys.NewRunner()
	runner.Register(NewCleanupSystem(st))
	runner.Register(NewOutputSystem(bus))
	runner.Register(combat)
	runner.Register(NewPopulationSystem(dir, time.Second, log))

	return &sim{st: st, clk: clk, bus: bus, dir: dir, combat: combat, runner: runner}
}

func (s *sim) step(n int) {
	for i := 0; i < n; i++ {
		s.clk.Advance(frame)
		s.runner.Tick(frame)
	}
}

func (s *sim) only(t *testing.T) *world.Actor {
	t.Helper()
	var found *world.Actor
	s.st.EachActor(func(a *world.Actor) { found = a })
	require.NotNil(t, found)
	return found
}

func den() data.SpawnerDef {
	return data.SpawnerDef{ID: "den", Kind: "solo", X: 30, Y: 0, Respawn: 5 * time.Second}
}

func TestPopulationInterval(t *testing.T) {
	s := newTestSim(t, den())
	s.step(9)
	assert.Zero(t, s.st.ActorCount())
	s.step(1)
	assert.Equal(t, 1, s.st.ActorCount())
}

func TestChaseLoseAndReturnHome(t *testing.T) {
	s := newTestSim(t, den())
	var disengaged []event.ActorDisengaged
	event.Subscribe(s.bus, func(ev event.ActorDisengaged) { disengaged = append(disengaged, ev) })
	var resets int
	event.Subscribe(s.bus, func(event.ActorReset) { resets++ })

	require.Equal(t, 1, s.dir.Bootstrap())
	a := s.only(t)
	s.st.Player = &world.Player{ID: 9, Pos: world.Vec{X: 25}, ActiveRadius: 40}

	s.step(1)
	assert.Equal(t, world.Alert, a.State)
	s.step(1)
	assert.Equal(t, world.Engaged, a.State)
	assert.Equal(t, uint64(9), a.Target)
	assert.Less(t, a.Pos.X, 30.0, "closing in on the player")

	s.st.Player.Pos = world.Vec{X: 100}
	seenRetreat := false
	for i := 0; i < 200 && resets == 0; i++ {
		s.step(1)
		if a.State == world.Retreating {
			seenRetreat = true
		}
	}
	require.True(t, seenRetreat)
	require.Len(t, disengaged, 1)
	assert.Equal(t, "lost", disengaged[0].Reason)
	assert.Equal(t, a.ID, disengaged[0].Actor)

	assert.Equal(t, 1, resets)
	assert.Equal(t, world.Unaware, a.State)
	assert.InDelta(t, 30.0, a.Pos.X, 0.75)
	assert.Equal(t, a.MaxHP, a.HP)
}

func TestGuardBreakoffInLoop(t *testing.T) {
	s := newTestSim(t, den())
	require.Equal(t, 1, s.dir.Bootstrap())
	a := s.only(t)
	s.st.Player = &world.Player{ID: 9, Pos: world.Vec{X: 26}, ActiveRadius: 40}
	s.st.Guards = []*world.Guard{{ID: 1, Pos: world.Vec{X: 24}, Level: 30}}

	s.step(1)
	require.Equal(t, world.Alert, a.State)
	s.step(1)
	assert.Equal(t, world.Retreating, a.State)
	assert.Equal(t, world.ReasonGuards, a.RetreatReason)
}

func TestDeathFreesSlotAndRespawns(t *testing.T) {
	s := newTestSim(t, den())
	require.Equal(t, 1, s.dir.Bootstrap())
	a := s.only(t)

	assert.Zero(t, s.combat.DamageActor(a.ID, 1000), "spawn immunity")
	s.step(20)
	assert.Equal(t, 1000.0, s.combat.DamageActor(a.ID, 1000))

	s.step(1)
	_, ok := s.st.Actor(a.ID)
	assert.False(t, ok, "removed at cleanup")
	sp, _ := s.st.Spawner("den")
	assert.True(t, sp.Slots[0].Empty())
	assert.True(t, sp.Slots[0].NextRespawn.IsSet())

	s.step(80)
	assert.Equal(t, 1, s.st.ActorCount())
}

func TestTimerRowsRoundTrip(t *testing.T) {
	s := newTestSim(t, den())
	require.Equal(t, 1, s.dir.Bootstrap())
	s.dir.OnActorDeath(s.only(t))
	s.st.FlushDead()

	core, logs := observer.New(zap.WarnLevel)
	norm := clock.NewNormalizer(1_760_000_000_000, zap.New(core))
	out := make(chan []persist.SlotTimerRow, 1)
	ps := NewPersistenceSystem(s.dir, norm, out, time.Second, zap.NewNop())

	ps.Update(time.Second)
	rows := <-out
	require.Len(t, rows, 1)
	assert.True(t, clock.IsForeign(rows[0].RespawnAtMs), "stored as wall-clock")

	timers := TimersFromRows(append(rows, rows...), norm)
	require.Len(t, timers, 2)
	assert.Equal(t, s.dir.SlotTimers()[0], timers[0])
	assert.Zero(t, logs.Len(), "wall-clock rows restore without a warning")

	stale := persist.SlotTimerRow{SpawnerID: "den", SlotIndex: 0, RespawnAtMs: 5_000}
	timers = TimersFromRows([]persist.SlotTimerRow{stale, stale}, norm)
	assert.Equal(t, clock.Time(5_000), timers[0].At)
	assert.Equal(t, 1, logs.Len(), "warned once for the field")
}

func TestPersistenceSkipsWhenWriterBusy(t *testing.T) {
	s := newTestSim(t, den())
	out := make(chan []persist.SlotTimerRow, 1)
	ps := NewPersistenceSystem(s.dir, clock.NewNormalizer(0, nil), out, time.Second, zap.NewNop())

	ps.Update(500 * time.Millisecond)
	assert.Len(t, out, 0)
	ps.Update(500 * time.Millisecond)
	assert.Len(t, out, 1)
	ps.Update(time.Second)
	assert.Len(t, out, 1)
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
		bad  bool
	}{
		{line: "move 12 -4.5", want: Command{Op: "move", X: 12, Y: -4.5}},
		{line: "flag act1_done on", want: Command{Op: "flag", Name: "act1_done", On: true}},
		{line: "FLAG act1_done off", want: Command{Op: "flag", Name: "act1_done"}},
		{line: "hit 4294967297 25", want: Command{Op: "hit", Actor: world.ActorID(4294967297), Amount: 25}},
		{line: "disable wolves_north", want: Command{Op: "disable", Name: "wolves_north"}},
		{line: "guard 3 4 20", want: Command{Op: "guard", X: 3, Y: 4, Level: 20}},
		{line: "", bad: true},
		{line: "move 1", bad: true},
		{line: "flag x maybe", bad: true},
		{line: "hit me 3", bad: true},
		{line: "hit 1 0", bad: true},
		{line: "hit 1 -5", bad: true},
		{line: "hit 1 NaN", bad: true},
		{line: "hit 1 +Inf", bad: true},
		{line: "dance", bad: true},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, err := ParseCommand(tc.line)
			if tc.bad {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInputSystem(t *testing.T) {
	s := newTestSim(t, den())
	require.Equal(t, 1, s.dir.Bootstrap())
	s.st.Player = &world.Player{ID: 1}
	flags := persist.NewFlagSet()
	queue := make(chan Command, 8)
	in := NewInputSystem(s.st, s.dir, s.combat, flags, nil, queue, 2, zaptest.NewLogger(t))

	queue <- Command{Op: "move", X: 5, Y: 6}
	queue <- Command{Op: "flag", Name: "act1", On: true}
	queue <- Command{Op: "guard", X: 1, Y: 1, Level: 30}
	queue <- Command{Op: "disable", Name: "den"}

	in.Update(frame)
	assert.Equal(t, world.Vec{X: 5, Y: 6}, s.st.Player.Pos)
	assert.True(t, flags.HasFlag("act1"))
	assert.Empty(t, s.st.Guards, "two commands per tick")

	in.Update(frame)
	require.Len(t, s.st.Guards, 1)
	assert.Equal(t, 30, s.st.Guards[0].Level)
	sp, _ := s.st.Spawner("den")
	assert.True(t, sp.Disabled)
}

func TestHitRejectsNonPositiveDamage(t *testing.T) {
	for _, line := range []string{"hit 7 -5", "hit 7 nan"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, errBadDamage, line)
	}
}

func TestInputSystemQueuesFlagWrites(t *testing.T) {
	s := newTestSim(t, den())
	flags := persist.NewFlagSet("act1")
	queue := make(chan Command, 8)
	writes := make(chan persist.FlagChange, 1)
	core, logs := observer.New(zap.WarnLevel)
	in := NewInputSystem(s.st, s.dir, s.combat, flags, writes, queue, 4, zap.New(core))

	queue <- Command{Op: "flag", Name: "act2", On: true}
	queue <- Command{Op: "flag", Name: "act1", On: false}
	in.Update(frame)

	assert.True(t, flags.HasFlag("act2"))
	assert.False(t, flags.HasFlag("act1"), "in-memory flags change even when the writer is busy")
	require.Len(t, writes, 1)
	assert.Equal(t, persist.FlagChange{Name: "act2", On: true}, <-writes)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "act1", logs.All()[0].ContextMap()["flag"])
}
