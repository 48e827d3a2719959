// Package spawn is the population controller. It owns every spawner's
// permanent slot footprints and fills empty slots under the respawn timer,
// gate, density and player-distance rules.
package spawn

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/config"
	"github.com/l1jgo/frontier/internal/core/event"
	"github.com/l1jgo/frontier/internal/data"
	"github.com/l1jgo/frontier/internal/disposition"
	"github.com/l1jgo/frontier/internal/scripting"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// ErrUnknownSpawner is returned for operations naming a spawner that was
// never registered.
var ErrUnknownSpawner = errors.New("unknown spawner")

const (
	defaultRespawn      = 60 * time.Second
	defaultGroupRadius  = 6
	defaultGroupMinimum = 2
	defaultGroupMaximum = 3
)

// Deps are the collaborators a Director reads and writes.
type Deps struct {
	State  *world.State
	Disp   *disposition.Engine
	Actors *data.ActorTable
	Walk   world.Walkability
	Flags  world.FlagOracle      // nil = no flag is set
	Gates  *scripting.GateEngine // nil = spawners may not declare gate scripts
	Clock  clock.Clock
	Rand   *rand.Rand
	Bus    *event.Bus
	Log    *zap.Logger
}

// Director is the spawn director. Single-goroutine access only (game loop).
type Director struct {
	cfg    config.SpawnConfig
	state  *world.State
	disp   *disposition.Engine
	actors *data.ActorTable
	walk   world.Walkability
	flags  world.FlagOracle
	gates  *scripting.GateEngine
	clk    clock.Clock
	rng    *rand.Rand
	bus    *event.Bus
	log    *zap.Logger

	groupSeq uint64
	held     map[world.SlotRef]struct{} // timers restored from storage; bootstrap honours them
}

func NewDirector(cfg config.SpawnConfig, d Deps) *Director {
	if d.Walk == nil {
		d.Walk = world.OpenGround
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	return &Director{
		cfg:    cfg,
		state:  d.State,
		disp:   d.Disp,
		actors: d.Actors,
		walk:   d.Walk,
		flags:  d.Flags,
		gates:  d.Gates,
		clk:    d.Clock,
		rng:    d.Rand,
		bus:    d.Bus,
		log:    d.Log,
		held:   make(map[world.SlotRef]struct{}),
	}
}

// Init builds spawners from their definitions, plus the scatter spawners
// generated for each ring, and computes every slot footprint. Footprints
// that cannot be placed are logged and left unfillable. Errors are only
// returned for bad definitions (unknown actor type, bad gate script).
func (d *Director) Init(defs []data.SpawnerDef) error {
	all := slices.Clone(defs)
	all = append(all, d.scatterDefs()...)

	var slots, unplaced int
	for i := range all {
		if _, dup := d.state.Spawner(all[i].ID); dup {
			return fmt.Errorf("spawner %s: duplicate id", all[i].ID)
		}
		sp, err := d.build(&all[i])
		if err != nil {
			return err
		}
		d.state.AddSpawner(sp)
		d.placeSlots(sp)
		for _, sl := range sp.Slots {
			slots++
			if !sl.HasFootprint {
				unplaced++
			}
		}
	}

	d.log.Info("spawners initialised",
		zap.Int("spawners", len(d.state.Spawners())),
		zap.Int("slots", slots),
		zap.Int("unplaced", unplaced),
		zap.Int("reserved_tiles", d.state.Reservations.Len()),
	)
	return nil
}

// build turns a definition into a registered-ready spawner.
func (d *Director) build(def *data.SpawnerDef) (*world.Spawner, error) {
	center := world.Tile{X: def.X, Y: def.Y}
	atCenter := d.state.RingAt(center.Vec())

	sp := &world.Spawner{
		ID:             def.ID,
		Kind:           world.KindSolo,
		Ring:           def.Ring,
		Center:         center,
		Radius:         def.Radius,
		Pool:           def.Pool,
		LevelMin:       def.LevelMin,
		LevelMax:       def.LevelMax,
		GroupMin:       def.GroupMin,
		GroupMax:       def.GroupMax,
		EliteChance:    def.EliteChance,
		EliteCap:       def.EliteCap,
		Respawn:        def.Respawn,
		AggroRadius:    def.AggroRadius,
		LeashRadius:    def.LeashRadius,
		DeaggroPad:     def.DeaggroPad,
		RequiredFlags:  def.RequiredFlags,
		ForbiddenFlags: def.ForbiddenFlags,
		GateScript:     def.Gate,
	}
	if def.Kind == "group" {
		sp.Kind = world.KindGroup
		if sp.GroupMax <= 0 {
			sp.GroupMax = defaultGroupMaximum
		}
		if sp.GroupMin <= 0 {
			sp.GroupMin = min(defaultGroupMinimum, sp.GroupMax)
		}
		if sp.GroupMin > sp.GroupMax {
			sp.GroupMin = sp.GroupMax
		}
		if sp.Radius <= 0 {
			sp.Radius = defaultGroupRadius
		}
	}
	if sp.Respawn <= 0 {
		sp.Respawn = defaultRespawn
	}

	switch {
	case sp.Ring == "" && atCenter != nil:
		sp.Ring = atCenter.Name
	case sp.Ring != "" && (atCenter == nil || atCenter.Name != sp.Ring):
		got := ""
		if atCenter != nil {
			got = atCenter.Name
		}
		d.log.Warn("spawner ring mismatch",
			zap.String("spawner", sp.ID),
			zap.String("declared", sp.Ring),
			zap.String("at_center", got),
		)
	}

	// Pool and level range fall back to the ring.
	if ring := d.state.RingNamed(sp.Ring); ring != nil {
		if len(sp.Pool) == 0 {
			sp.Pool = ring.Pool
		}
		if sp.LevelMin <= 0 && sp.LevelMax <= 0 {
			sp.LevelMin, sp.LevelMax = ring.LevelMin, ring.LevelMax
		}
	}
	if sp.LevelMin <= 0 {
		sp.LevelMin = 1
	}
	if sp.LevelMax < sp.LevelMin {
		sp.LevelMax = sp.LevelMin
	}
	if len(sp.Pool) == 0 {
		return nil, fmt.Errorf("spawner %s: empty actor pool", sp.ID)
	}

	npe := true
	for _, name := range sp.Pool {
		at, err := d.actors.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("spawner %s: %w", sp.ID, err)
		}
		npe = npe && at.NPE
	}
	sp.NPE = npe

	if sp.GateScript != "" {
		if d.gates == nil {
			return nil, fmt.Errorf("spawner %s: gate script without a gate engine", sp.ID)
		}
		if err := d.gates.Compile(sp.ID, sp.GateScript); err != nil {
			return nil, err
		}
	}

	sp.Slots = make([]*world.Slot, sp.SlotCount())
	for i := range sp.Slots {
		sp.Slots[i] = &world.Slot{Index: i, NextRespawn: clock.None}
	}
	return sp, nil
}

// DisableSpawner tears a spawner down: live actors are despawned without
// arming timers, every footprint reservation is released and the spawner
// never ticks again.
func (d *Director) DisableSpawner(id string) error {
	sp, ok := d.state.Spawner(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSpawner, id)
	}
	if sp.Disabled {
		return nil
	}

	despawned := 0
	for _, sl := range sp.Slots {
		if !sl.Empty() {
			if a, ok := d.state.Actor(sl.Occupant); ok && a.State != world.Dead {
				a.DeathHandled = true
				d.state.KillActor(a)
				despawned++
			}
			sl.Occupant = 0
		}
		if sl.HasFootprint {
			d.state.Reservations.Release(sl.Footprint.Tiles())
			sl.HasFootprint = false
		}
		sl.NextRespawn = clock.None
		delete(d.held, world.SlotRef{SpawnerID: sp.ID, Slot: sl.Index})
	}
	sp.Disabled = true

	event.Emit(d.bus, event.SpawnerDisabled{SpawnerID: sp.ID, Despawned: despawned})
	d.log.Info("spawner disabled", zap.String("spawner", sp.ID), zap.Int("despawned", despawned))
	return nil
}

// respawnDelay draws a duration in [base, base*jitter].
func (d *Director) respawnDelay(sp *world.Spawner) time.Duration {
	base := float64(sp.Respawn)
	spread := base * (d.cfg.RespawnJitter - 1)
	return time.Duration(base + spread*d.rng.Float64())
}
