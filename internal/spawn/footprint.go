package spawn

import (
	"math"

	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// footprintValid reports whether all nine tiles of fp are walkable,
// unreserved and outside the buffered base bounds.
func (d *Director) footprintValid(fp world.Footprint) bool {
	for _, t := range fp.Tiles() {
		if !d.walk.Walkable(t.X, t.Y) {
			return false
		}
		if d.state.Reservations.IsReserved(t) {
			return false
		}
		if d.state.InBaseExclusion(t, d.cfg.BaseBuffer) {
			return false
		}
	}
	return true
}

// claim reserves fp for a slot. A conflict is logged and reported so the
// caller's search moves on; an existing owner is never overwritten.
func (d *Director) claim(sp *world.Spawner, sl *world.Slot, fp world.Footprint) bool {
	ref := world.SlotRef{SpawnerID: sp.ID, Slot: sl.Index}
	if !d.state.Reservations.Reserve(fp.Tiles(), ref) {
		d.log.Debug("reservation conflict",
			zap.String("spawner", sp.ID),
			zap.Int("slot", sl.Index),
			zap.Int32("x", fp.Center.X),
			zap.Int32("y", fp.Center.Y),
		)
		return false
	}
	sl.Footprint = fp
	sl.HasFootprint = true
	return true
}

// placeSlots computes and reserves the footprint of every slot once.
func (d *Director) placeSlots(sp *world.Spawner) {
	if sp.Kind == world.KindGroup {
		d.placeGroup(sp)
	} else {
		d.spiralSlot(sp, sp.Slots[0], nil)
	}

	for _, sl := range sp.Slots {
		if !sl.HasFootprint {
			d.log.Warn("unfindable footprint",
				zap.String("spawner", sp.ID),
				zap.Int("slot", sl.Index),
				zap.Int32("center_x", sp.Center.X),
				zap.Int32("center_y", sp.Center.Y),
			)
		}
	}
}

// spiralSlot searches outward from the spawner center for the first valid
// footprint that does not overlap any in taken.
func (d *Director) spiralSlot(sp *world.Spawner, sl *world.Slot, taken []world.Footprint) bool {
	_, ok := world.Spiral(sp.Center, d.cfg.FootprintSearchRadius, func(t world.Tile) bool {
		fp := world.Footprint{Center: t}
		for _, o := range taken {
			if fp.Overlaps(o) {
				return false
			}
		}
		return d.footprintValid(fp) && d.claim(sp, sl, fp)
	})
	return ok
}

// placeGroup lays the group's slots on a lattice around the center, then
// around random anchors within the spawner radius, and finally falls back
// to placing each slot on its own.
func (d *Director) placeGroup(sp *world.Spawner) {
	if d.placeLattice(sp, sp.Center) {
		return
	}
	r := sp.Radius
	for range d.cfg.GroupAnchorAttempts {
		anchor := world.Tile{
			X: sp.Center.X + d.rng.Int32N(2*r+1) - r,
			Y: sp.Center.Y + d.rng.Int32N(2*r+1) - r,
		}
		if d.placeLattice(sp, anchor) {
			return
		}
	}

	d.log.Debug("group lattice failed, placing slots independently", zap.String("spawner", sp.ID))
	var taken []world.Footprint
	for _, sl := range sp.Slots {
		if d.spiralSlot(sp, sl, taken) {
			taken = append(taken, sl.Footprint)
		}
	}
}

// latticeCenters returns n footprint centers on a near-square grid centered
// on anchor, spacing tiles apart.
func latticeCenters(anchor world.Tile, n int, spacing int32) []world.Tile {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	offX := int32(cols-1) * spacing / 2
	offY := int32(rows-1) * spacing / 2

	out := make([]world.Tile, 0, n)
	for i := 0; i < n; i++ {
		col, row := int32(i%cols), int32(i/cols)
		out = append(out, world.Tile{
			X: anchor.X + col*spacing - offX,
			Y: anchor.Y + row*spacing - offY,
		})
	}
	return out
}

// placeLattice claims the whole lattice at anchor, or nothing.
func (d *Director) placeLattice(sp *world.Spawner, anchor world.Tile) bool {
	centers := latticeCenters(anchor, len(sp.Slots), d.cfg.GroupSpacing)
	for _, c := range centers {
		if !d.footprintValid(world.Footprint{Center: c}) {
			return false
		}
	}
	for i, c := range centers {
		if !d.claim(sp, sp.Slots[i], world.Footprint{Center: c}) {
			for _, sl := range sp.Slots[:i] {
				d.state.Reservations.Release(sl.Footprint.Tiles())
				sl.HasFootprint = false
			}
			return false
		}
	}
	return true
}
