package persist

import (
	"context"
	"fmt"
	"slices"
)

// FlagRepo stores story/world-state flags.
type FlagRepo struct {
	db *DB
}

func NewFlagRepo(db *DB) *FlagRepo {
	return &FlagRepo{db: db}
}

// LoadAll returns every set flag. Called at server startup.
func (r *FlagRepo) LoadAll(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM world_flags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Set raises or clears one flag.
func (r *FlagRepo) Set(ctx context.Context, name string, on bool) error {
	var err error
	if on {
		_, err = r.db.Pool.Exec(ctx,
			`INSERT INTO world_flags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	} else {
		_, err = r.db.Pool.Exec(ctx, `DELETE FROM world_flags WHERE name = $1`, name)
	}
	if err != nil {
		return fmt.Errorf("set flag %s: %w", name, err)
	}
	return nil
}

// FlagChange is one flag write queued for FlagRepo.
type FlagChange struct {
	Name string
	On   bool
}

// FlagSet is the in-memory flag oracle the simulation reads. It is filled
// from FlagRepo at startup, or from config when no database is used.
// Single-goroutine access only (game loop).
type FlagSet struct {
	set map[string]struct{}
}

func NewFlagSet(names ...string) *FlagSet {
	f := &FlagSet{set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.set[n] = struct{}{}
	}
	return f
}

func (f *FlagSet) HasFlag(name string) bool {
	_, ok := f.set[name]
	return ok
}

// Set raises or clears a flag.
func (f *FlagSet) Set(name string, on bool) {
	if on {
		f.set[name] = struct{}{}
	} else {
		delete(f.set, name)
	}
}

// Names returns the raised flags in sorted order.
func (f *FlagSet) Names() []string {
	out := make([]string, 0, len(f.set))
	for n := range f.set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
