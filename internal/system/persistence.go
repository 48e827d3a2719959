package system

import (
	"context"
	"time"

	"github.com/l1jgo/frontier/internal/clock"
	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/persist"
	"github.com/l1jgo/frontier/internal/spawn"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// slotTimerField names stored respawn timers in normalizer warnings.
const slotTimerField = "slot_timers.respawn_at_ms"

// PersistenceSystem periodically snapshots armed respawn timers and hands
// them to the writer goroutine. The game loop never waits on the database;
// a snapshot is dropped if the writer is still busy with the previous one.
// Phase 4 (Persist).
type PersistenceSystem struct {
	director *spawn.Director
	norm     *clock.Normalizer
	out      chan<- []persist.SlotTimerRow
	interval time.Duration
	acc      time.Duration
	log      *zap.Logger
}

func NewPersistenceSystem(d *spawn.Director, norm *clock.Normalizer, out chan<- []persist.SlotTimerRow, interval time.Duration, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{director: d, norm: norm, out: out, interval: interval, log: log}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc = 0
	select {
	case s.out <- s.Snapshot():
	default:
		s.log.Warn("timer writer busy, snapshot skipped")
	}
}

// Snapshot converts the director's armed timers to storage rows.
func (s *PersistenceSystem) Snapshot() []persist.SlotTimerRow {
	timers := s.director.SlotTimers()
	rows := make([]persist.SlotTimerRow, 0, len(timers))
	for _, t := range timers {
		rows = append(rows, persist.SlotTimerRow{
			SpawnerID:   t.Ref.SpawnerID,
			SlotIndex:   int32(t.Ref.Slot),
			RespawnAtMs: s.norm.ToWall(t.At),
		})
	}
	return rows
}

// TimersFromRows converts stored rows back onto the simulation clock.
// Stored values are wall-clock and convert silently; a value in any other
// base is normalized with a warning.
func TimersFromRows(rows []persist.SlotTimerRow, norm *clock.Normalizer) []spawn.SlotTimer {
	out := make([]spawn.SlotTimer, 0, len(rows))
	for _, r := range rows {
		out = append(out, spawn.SlotTimer{
			Ref: world.SlotRef{SpawnerID: r.SpawnerID, Slot: int(r.SlotIndex)},
			At:  norm.FromStoredWall(slotTimerField, r.RespawnAtMs),
		})
	}
	return out
}

// RunTimerWriter saves snapshots from in until ctx is cancelled or in is
// closed. Save errors are logged; the next snapshot retries.
func RunTimerWriter(ctx context.Context, repo *persist.SlotTimerRepo, in <-chan []persist.SlotTimerRow, log *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rows, ok := <-in:
			if !ok {
				return nil
			}
			saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := repo.ReplaceAll(saveCtx, rows)
			cancel()
			if err != nil {
				log.Error("save slot timers", zap.Error(err))
				continue
			}
			log.Debug("slot timers saved", zap.Int("count", len(rows)))
		}
	}
}

// RunFlagWriter persists flag changes from in until ctx is cancelled or in is
// closed. Changes still buffered at cancellation are written before it
// returns.
func RunFlagWriter(ctx context.Context, repo *persist.FlagRepo, in <-chan persist.FlagChange, log *zap.Logger) error {
	write := func(ctx context.Context, c persist.FlagChange) {
		setCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repo.Set(setCtx, c.Name, c.On); err != nil {
			log.Error("persist flag", zap.String("flag", c.Name), zap.Error(err))
		}
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case c, ok := <-in:
					if !ok {
						return nil
					}
					write(context.Background(), c)
				default:
					return nil
				}
			}
		case c, ok := <-in:
			if !ok {
				return nil
			}
			write(ctx, c)
		}
	}
}
