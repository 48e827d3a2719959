package spawn

import (
	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// SlotTimer is one armed respawn timer on the simulation clock.
type SlotTimer struct {
	Ref world.SlotRef
	At  clock.Time
}

// SlotTimers snapshots every armed respawn timer of enabled spawners.
func (d *Director) SlotTimers() []SlotTimer {
	var out []SlotTimer
	for _, sp := range d.state.Spawners() {
		if sp.Disabled {
			continue
		}
		for _, sl := range sp.Slots {
			if sl.NextRespawn.IsSet() {
				out = append(out, SlotTimer{
					Ref: world.SlotRef{SpawnerID: sp.ID, Slot: sl.Index},
					At:  sl.NextRespawn,
				})
			}
		}
	}
	return out
}

// RestoreSlotTimers re-arms timers loaded from storage. Call it after Init
// and before Bootstrap; restored timers still in the future hold their slot
// through the bootstrap. Timers for unknown spawners or slots are dropped.
func (d *Director) RestoreSlotTimers(timers []SlotTimer) int {
	now := d.clk.Now()
	n := 0
	for _, t := range timers {
		sp, ok := d.state.Spawner(t.Ref.SpawnerID)
		if !ok || sp.Disabled || t.Ref.Slot < 0 || t.Ref.Slot >= len(sp.Slots) {
			d.log.Debug("dropping stored timer", zap.String("spawner", t.Ref.SpawnerID), zap.Int("slot", t.Ref.Slot))
			continue
		}
		if !t.At.IsSet() || t.At.Reached(now) {
			continue
		}
		sp.Slots[t.Ref.Slot].NextRespawn = t.At
		d.held[t.Ref] = struct{}{}
		n++
	}
	return n
}
