package world

// SlotRef names one slot of one spawner.
type SlotRef struct {
	SpawnerID string
	Slot      int
}

// ReservationGrid is the permanent tile → slot ownership map.
//
// A tile has at most one owner. Reservations are made once per slot when the
// spawner is initialised and released only when the spawner is torn down;
// actor death never touches this grid, so every respawn in a slot reuses the
// same footprint.
// Accessed only from the game loop goroutine, no locks.
type ReservationGrid struct {
	owners map[Tile]SlotRef
}

func NewReservationGrid() *ReservationGrid {
	return &ReservationGrid{owners: make(map[Tile]SlotRef, 1024)}
}

func (g *ReservationGrid) IsReserved(t Tile) bool {
	_, ok := g.owners[t]
	return ok
}

// OwnerOf returns the slot holding t.
func (g *ReservationGrid) OwnerOf(t Tile) (SlotRef, bool) {
	ref, ok := g.owners[t]
	return ref, ok
}

// Reserve claims all tiles for ref. If any tile is already reserved nothing
// is claimed and false is returned; existing owners are never overwritten.
func (g *ReservationGrid) Reserve(tiles []Tile, ref SlotRef) bool {
	for _, t := range tiles {
		if _, taken := g.owners[t]; taken {
			return false
		}
	}
	for _, t := range tiles {
		g.owners[t] = ref
	}
	return true
}

// Release drops the reservation on every given tile.
func (g *ReservationGrid) Release(tiles []Tile) {
	for _, t := range tiles {
		delete(g.owners, t)
	}
}

// Len returns the number of reserved tiles.
func (g *ReservationGrid) Len() int {
	return len(g.owners)
}

// Tiles returns every tile owned by ref.
func (g *ReservationGrid) Tiles(ref SlotRef) []Tile {
	var out []Tile
	for t, owner := range g.owners {
		if owner == ref {
			out = append(out, t)
		}
	}
	return out
}
