package spawn

import (
	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/core/event"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// fillMode carries the difference between a regular pass and the load-time
// bootstrap.
type fillMode struct {
	bootstrap bool
	exclusion float64 // minimum player distance to a footprint center
}

// Tick is one population pass: every loaded, enabled, gate-satisfied
// spawner fills what its slots allow. Returns the number of actors spawned.
func (d *Director) Tick() int {
	return d.pass(fillMode{exclusion: d.cfg.NearPlayerExclusion})
}

// Bootstrap populates the world right after Init. Respawn timers are
// bypassed, except ones restored from storage, and the near-player
// exclusion shrinks to the bootstrap safety distance.
func (d *Director) Bootstrap() int {
	n := d.pass(fillMode{bootstrap: true, exclusion: d.cfg.BootstrapSafety})
	d.log.Info("world bootstrap", zap.Int("spawned", n), zap.Int("actors", d.state.ActorCount()))
	return n
}

func (d *Director) pass(mode fillMode) int {
	now := d.clk.Now()
	total := 0
	for _, sp := range d.state.Spawners() {
		if sp.Disabled || !d.loaded(sp) || !d.gateOpen(sp) {
			continue
		}
		var ids []world.ActorID
		if sp.Kind == world.KindGroup {
			ids = d.fillGroup(sp, now, mode)
		} else {
			ids = d.fillSolo(sp, now, mode)
		}
		if len(ids) == 0 {
			continue
		}
		total += len(ids)
		event.Emit(d.bus, event.ActorsSpawned{
			SpawnerID: sp.ID,
			Actors:    ids,
			Bootstrap: mode.bootstrap,
			At:        now,
		})
	}
	return total
}

// loaded is the simulation-cost gate: spawners near the base or inside the
// player's active bubble tick, the rest of the world sleeps.
func (d *Director) loaded(sp *world.Spawner) bool {
	c := sp.Center.Vec()
	if d.state.DistFromBase(c) <= d.cfg.BaseLoadRadius {
		return true
	}
	p := d.state.Player
	return p != nil && c.Dist(p.Pos) <= p.ActiveRadius+d.cfg.PlayerMargin
}

// gateOpen evaluates story-flag gates. Spawners of new-player critters are
// never gated.
func (d *Director) gateOpen(sp *world.Spawner) bool {
	if sp.NPE {
		return true
	}
	for _, f := range sp.RequiredFlags {
		if !d.hasFlag(f) {
			return false
		}
	}
	for _, f := range sp.ForbiddenFlags {
		if d.hasFlag(f) {
			return false
		}
	}
	if sp.GateScript == "" {
		return true
	}
	ok, err := d.gates.Eval(sp.ID, d.flags)
	if err != nil {
		d.log.Warn("gate eval", zap.String("spawner", sp.ID), zap.Error(err))
		return false
	}
	return ok
}

func (d *Director) hasFlag(name string) bool {
	return d.flags != nil && d.flags.HasFlag(name)
}

// densityAllows folds the ring's live cap into slot eligibility. New-player
// critters bypass it.
func (d *Director) densityAllows(sp *world.Spawner, n int) bool {
	if sp.NPE {
		return true
	}
	ring := d.state.RingNamed(sp.Ring)
	if ring == nil || ring.MaxAlive <= 0 {
		return true
	}
	return d.state.RingLive(ring.Name)+n <= ring.MaxAlive
}

// playerTooClose reports whether the player stands within exclusion of the
// slot's footprint center.
func (d *Director) playerTooClose(sl *world.Slot, exclusion float64) bool {
	p := d.state.Player
	if p == nil || p.Dead {
		return false
	}
	return sl.Home().Dist(p.Pos) < exclusion
}

// timerAllows applies the respawn timer, which the bootstrap bypasses
// unless it was restored from storage.
func (d *Director) timerAllows(sp *world.Spawner, sl *world.Slot, now clock.Time, mode fillMode) bool {
	if sl.NextRespawn.Reached(now) {
		return true
	}
	if !mode.bootstrap {
		return false
	}
	_, held := d.held[world.SlotRef{SpawnerID: sp.ID, Slot: sl.Index}]
	return !held
}

func (d *Director) fillSolo(sp *world.Spawner, now clock.Time, mode fillMode) []world.ActorID {
	sl := sp.Slots[0]
	if !sl.HasFootprint || !sl.Empty() {
		return nil
	}
	if !d.timerAllows(sp, sl, now, mode) || d.playerTooClose(sl, mode.exclusion) || !d.densityAllows(sp, 1) {
		return nil
	}
	elite := sp.EliteCap > 0 && d.rng.Float64() < sp.EliteChance
	id, ok := d.spawnInto(sp, sl, 0, elite, now)
	if !ok {
		return nil
	}
	return []world.ActorID{id}
}

// fillGroup spawns a whole pack or nothing. It runs only when every slot is
// empty and the shared timer on slot 0 has elapsed.
func (d *Director) fillGroup(sp *world.Spawner, now clock.Time, mode fillMode) []world.ActorID {
	if !sp.AllEmpty() || !d.timerAllows(sp, sp.Slots[0], now, mode) {
		return nil
	}
	usable := sp.UsableSlots()
	if len(usable) == 0 {
		return nil
	}

	lo := min(max(sp.GroupMin, 1), len(usable))
	k := lo + d.rng.IntN(len(usable)-lo+1)
	d.rng.Shuffle(len(usable), func(i, j int) { usable[i], usable[j] = usable[j], usable[i] })
	roster := usable[:k]

	for _, sl := range roster {
		if d.playerTooClose(sl, mode.exclusion) {
			return nil
		}
	}
	if !d.densityAllows(sp, k) {
		return nil
	}

	d.groupSeq++
	group := d.groupSeq
	elites := 0
	ids := make([]world.ActorID, 0, k)
	for _, sl := range roster {
		elite := elites < sp.EliteCap && d.rng.Float64() < sp.EliteChance
		id, ok := d.spawnInto(sp, sl, group, elite, now)
		if !ok {
			continue
		}
		if elite {
			elites++
		}
		ids = append(ids, id)
	}
	sp.Slots[0].NextRespawn = clock.None
	return ids
}

// spawnInto creates one actor in sl, homed at the slot's footprint center.
func (d *Director) spawnInto(sp *world.Spawner, sl *world.Slot, group uint64, elite bool, now clock.Time) (world.ActorID, bool) {
	name := sp.Pool[d.rng.IntN(len(sp.Pool))]
	typ := d.actors.Get(name)
	if typ == nil {
		return 0, false
	}
	level := sp.LevelMin + d.rng.IntN(sp.LevelMax-sp.LevelMin+1)

	ref := world.SlotRef{SpawnerID: sp.ID, Slot: sl.Index}
	a := world.NewActor(name, level, typ.MaxHPAt(level, elite), ref)
	a.Elite = elite
	a.GroupID = group
	a.Pos = sl.Home()
	a.Home = sl.Home()
	a.HasHome = true
	a.AggroRadius = typ.AggroRadius
	a.LeashRadius = typ.LeashRadius
	a.Passive = typ.NPE
	d.disp.InitActor(a, sp, now)

	id := d.state.AddActor(a)
	sl.Occupant = id
	sl.NextRespawn = clock.None
	delete(d.held, ref)

	d.log.Debug("actor spawned",
		zap.String("spawner", sp.ID),
		zap.Int("slot", sl.Index),
		zap.String("type", name),
		zap.Int("level", level),
		zap.Bool("elite", elite),
	)
	return id, true
}

// OnActorDeath releases the dead actor's slot occupancy and arms the
// respawn timer: per slot for solo spawners, on slot 0 once the last pack
// member of a group is gone. The footprint reservation is kept.
func (d *Director) OnActorDeath(a *world.Actor) {
	if a.DeathHandled {
		return
	}
	a.DeathHandled = true
	d.state.KillActor(a)

	sp, ok := d.state.Spawner(a.SpawnerID)
	if !ok || a.SlotIndex < 0 || a.SlotIndex >= len(sp.Slots) {
		return
	}
	sl := sp.Slots[a.SlotIndex]
	if sl.Occupant != a.ID {
		return
	}
	sl.Occupant = 0

	now := d.clk.Now()
	respawnAt := clock.None
	switch {
	case sp.Disabled:
	case sp.Kind == world.KindSolo:
		respawnAt = now.Add(d.respawnDelay(sp))
		sl.NextRespawn = respawnAt
	case sp.AllEmpty():
		respawnAt = now.Add(d.respawnDelay(sp))
		sp.Slots[0].NextRespawn = respawnAt
	}

	event.Emit(d.bus, event.SlotReleased{
		SpawnerID: sp.ID,
		Slot:      sl.Index,
		Actor:     a.ID,
		RespawnAt: respawnAt,
	})
	d.log.Debug("slot released",
		zap.String("spawner", sp.ID),
		zap.Int("slot", sl.Index),
		zap.Int64("respawn_at", respawnAt.Millis()),
	)
}
