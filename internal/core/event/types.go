package event

import (
	"github.com/l1jgo/frontier/internal/clock"
	"github.com/l1jgo/frontier/internal/core/ecs"
)

// ActorsSpawned is emitted once per fill batch (one solo slot or one whole
// group). It replaces the render-sync callback.
type ActorsSpawned struct {
	SpawnerID string
	Actors    []ecs.EntityID
	Bootstrap bool
	At        clock.Time
}

// ActorDisengaged is emitted when an actor starts retreating, or when an
// in-progress retreat is upgraded to a more urgent reason. The combat side
// cancels its pursuit state on receipt.
type ActorDisengaged struct {
	Actor  ecs.EntityID
	Reason string
	At     clock.Time
}

// ActorReset is emitted when a retreating actor arrives home and resets.
type ActorReset struct {
	Actor ecs.EntityID
	At    clock.Time
}

// SlotReleased is emitted when an actor's death frees its slot occupancy.
// RespawnAt is clock.None while other pack members are still alive.
type SlotReleased struct {
	SpawnerID string
	Slot      int
	Actor     ecs.EntityID
	RespawnAt clock.Time
}

// SpawnerDisabled is emitted when a spawner is torn down and its footprint
// reservations are released.
type SpawnerDisabled struct {
	SpawnerID string
	Despawned int
}
