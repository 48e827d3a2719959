package world

import "github.com/l1jgo/frontier/internal/core/ecs"

// OccupancyGrid tracks which live actors stand on which tile right now.
// Unlike ReservationGrid it changes every time an actor moves, spawns or
// dies. Several actors may share a tile while passing through each other.
// Accessed only from the game loop goroutine, no locks.
type OccupancyGrid struct {
	tiles map[Tile]map[ecs.EntityID]struct{}
}

func NewOccupancyGrid() *OccupancyGrid {
	return &OccupancyGrid{tiles: make(map[Tile]map[ecs.EntityID]struct{})}
}

// Occupy marks an actor as standing on a tile.
func (g *OccupancyGrid) Occupy(t Tile, id ecs.EntityID) {
	cell := g.tiles[t]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{}, 1)
		g.tiles[t] = cell
	}
	cell[id] = struct{}{}
}

// Vacate removes an actor from a tile.
func (g *OccupancyGrid) Vacate(t Tile, id ecs.EntityID) {
	cell := g.tiles[t]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.tiles, t)
	}
}

// Move vacates from and occupies to.
func (g *OccupancyGrid) Move(from, to Tile, id ecs.EntityID) {
	if from == to {
		return
	}
	g.Vacate(from, id)
	g.Occupy(to, id)
}

// IsOccupied reports whether any actor other than exclude stands on t.
func (g *OccupancyGrid) IsOccupied(t Tile, exclude ecs.EntityID) bool {
	for id := range g.tiles[t] {
		if id != exclude {
			return true
		}
	}
	return false
}
