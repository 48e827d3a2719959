package world

import (
	"slices"

	"github.com/l1jgo/frontier/internal/core/ecs"
)

// State is the simulation context: it owns the spawner registry, the tile
// reservation grid, live occupancy and the live-actor collection for one
// loaded world. Every core operation receives it explicitly; nothing in the
// core reaches for a global. Its lifetime is one world load.
// Single-goroutine access only (game loop).
type State struct {
	Base Base

	Reservations *ReservationGrid
	Occupancy    *OccupancyGrid

	// Player and Guards are written by the input collaborator.
	Player *Player
	Guards []*Guard

	rings       []*Ring
	spawners    map[string]*Spawner
	spawnerList []*Spawner

	ecs      *ecs.World
	actors   *ecs.PtrComponentStore[Actor]
	ringLive map[string]int
	idBuf    []ecs.EntityID
}

func NewState(base Base, rings []*Ring) *State {
	sorted := slices.Clone(rings)
	slices.SortFunc(sorted, func(a, b *Ring) int {
		switch {
		case a.Inner < b.Inner:
			return -1
		case a.Inner > b.Inner:
			return 1
		}
		return 0
	})
	s := &State{
		Base:         base,
		Reservations: NewReservationGrid(),
		Occupancy:    NewOccupancyGrid(),
		rings:        sorted,
		spawners:     make(map[string]*Spawner),
		ecs:          ecs.NewWorld(),
		actors:       ecs.NewPtrComponentStore[Actor](),
		ringLive:     make(map[string]int),
	}
	s.ecs.Registry().Register(s.actors)
	return s
}

// --- Rings ---

func (s *State) Rings() []*Ring { return s.rings }

// DistFromBase returns the distance of v from the base center.
func (s *State) DistFromBase(v Vec) float64 {
	return v.Dist(s.Base.Center)
}

// RingAt returns the ring containing v, or nil outside every band.
func (s *State) RingAt(v Vec) *Ring {
	d := s.DistFromBase(v)
	for _, r := range s.rings {
		if r.Contains(d) {
			return r
		}
	}
	return nil
}

// RingNamed looks a ring up by name.
func (s *State) RingNamed(name string) *Ring {
	for _, r := range s.rings {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// RingLive returns the number of live actors spawned by spawners tagged
// with the named ring.
func (s *State) RingLive(name string) int {
	return s.ringLive[name]
}

// InBaseExclusion reports whether t lies inside the base bounds grown by buffer.
func (s *State) InBaseExclusion(t Tile, buffer int32) bool {
	return s.Base.Bounds.Grow(buffer).Contains(t)
}

// --- Spawners ---

// AddSpawner registers a spawner. Registration order is tick order.
func (s *State) AddSpawner(sp *Spawner) {
	if _, dup := s.spawners[sp.ID]; dup {
		return
	}
	s.spawners[sp.ID] = sp
	s.spawnerList = append(s.spawnerList, sp)
}

func (s *State) Spawner(id string) (*Spawner, bool) {
	sp, ok := s.spawners[id]
	return sp, ok
}

// Spawners returns all spawners in registration order.
func (s *State) Spawners() []*Spawner {
	return s.spawnerList
}

// --- Actors ---

// AddActor assigns an ID to a freshly built actor and places it in the world.
func (s *State) AddActor(a *Actor) ActorID {
	a.ID = s.ecs.CreateEntity()
	s.actors.Set(a.ID, a)
	s.Occupancy.Occupy(a.Pos.Tile(), a.ID)
	if sp, ok := s.spawners[a.SpawnerID]; ok {
		s.ringLive[sp.Ring]++
	}
	return a.ID
}

// Actor returns a live (or dying, until cleanup) actor.
func (s *State) Actor(id ActorID) (*Actor, bool) {
	return s.actors.Get(id)
}

// ActorCount returns the number of actors in the store, dying ones included.
func (s *State) ActorCount() int {
	return s.actors.Len()
}

// ActorIDs returns all actor IDs in ascending order. The slice is reused
// between calls; callers must not keep it across ticks.
func (s *State) ActorIDs() []ActorID {
	s.idBuf = s.actors.IDs(s.idBuf[:0])
	slices.Sort(s.idBuf)
	return s.idBuf
}

// EachActor visits every non-dead actor in ascending ID order.
func (s *State) EachActor(fn func(*Actor)) {
	for _, id := range slices.Clone(s.ActorIDs()) {
		if a, ok := s.actors.Get(id); ok && a.State != Dead {
			fn(a)
		}
	}
}

// MoveActor relocates an actor and keeps the occupancy grid in sync.
// All actor position changes go through here.
func (s *State) MoveActor(a *Actor, to Vec) {
	from := a.Pos.Tile()
	a.Pos = to
	s.Occupancy.Move(from, to.Tile(), a.ID)
}

// KillActor marks an actor dead, frees its tile, and queues it for removal
// at the end of the tick. Slot bookkeeping is the spawn director's job.
func (s *State) KillActor(a *Actor) {
	if a.State == Dead {
		return
	}
	a.State = Dead
	a.HP = 0
	s.Occupancy.Vacate(a.Pos.Tile(), a.ID)
	if sp, ok := s.spawners[a.SpawnerID]; ok && s.ringLive[sp.Ring] > 0 {
		s.ringLive[sp.Ring]--
	}
	s.ecs.MarkForDestruction(a.ID)
}

// FlushDead removes actors killed this tick from the store.
func (s *State) FlushDead() int {
	n := s.ecs.PendingDestruction()
	s.ecs.FlushDestroyQueue()
	return n
}

// GroupMembers returns the non-dead actors sharing groupID, in ID order.
func (s *State) GroupMembers(groupID uint64) []*Actor {
	if groupID == 0 {
		return nil
	}
	var out []*Actor
	s.EachActor(func(a *Actor) {
		if a.GroupID == groupID {
			out = append(out, a)
		}
	})
	return out
}

// HomeBlocked reports whether another live actor stands on t or another
// retreating actor is already heading there. This is live occupancy, not
// the permanent reservation grid.
func (s *State) HomeBlocked(t Tile, exclude ActorID) bool {
	if s.Occupancy.IsOccupied(t, exclude) {
		return true
	}
	blocked := false
	s.actors.Each(func(id ecs.EntityID, a *Actor) {
		if blocked || id == exclude || a.State != Retreating {
			return
		}
		if a.RetreatDest.Tile() == t {
			blocked = true
		}
	})
	return blocked
}
