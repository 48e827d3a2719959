package persist

import (
	"context"
	"fmt"
)

// SlotTimerRow is one armed respawn timer. RespawnAtMs is wall-clock epoch
// milliseconds; the simulation converts at the boundary.
type SlotTimerRow struct {
	SpawnerID   string
	SlotIndex   int32
	RespawnAtMs int64
}

// SlotTimerRepo keeps respawn timers across restarts so a restart does not
// instantly refill every camp.
type SlotTimerRepo struct {
	db *DB
}

func NewSlotTimerRepo(db *DB) *SlotTimerRepo {
	return &SlotTimerRepo{db: db}
}

// LoadAll returns every stored timer.
func (r *SlotTimerRepo) LoadAll(ctx context.Context) ([]SlotTimerRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT spawner_id, slot_index, respawn_at_ms FROM slot_timers ORDER BY spawner_id, slot_index`)
	if err != nil {
		return nil, fmt.Errorf("load slot timers: %w", err)
	}
	defer rows.Close()

	var out []SlotTimerRow
	for rows.Next() {
		var row SlotTimerRow
		if err := rows.Scan(&row.SpawnerID, &row.SlotIndex, &row.RespawnAtMs); err != nil {
			return nil, fmt.Errorf("scan slot timer: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ReplaceAll atomically swaps the stored timers for a new snapshot.
func (r *SlotTimerRepo) ReplaceAll(ctx context.Context, timers []SlotTimerRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("slot timers begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM slot_timers`); err != nil {
		return fmt.Errorf("slot timers clear: %w", err)
	}
	for _, t := range timers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO slot_timers (spawner_id, slot_index, respawn_at_ms) VALUES ($1, $2, $3)`,
			t.SpawnerID, t.SlotIndex, t.RespawnAtMs,
		); err != nil {
			return fmt.Errorf("slot timers insert: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("slot timers commit: %w", err)
	}
	return nil
}
