package world

// Walkability is the terrain/collision oracle.
type Walkability interface {
	Walkable(x, y int32) bool
}

// WalkableFunc adapts a plain function to Walkability.
type WalkableFunc func(x, y int32) bool

func (f WalkableFunc) Walkable(x, y int32) bool { return f(x, y) }

// OpenGround treats every tile as walkable.
var OpenGround = WalkableFunc(func(int32, int32) bool { return true })

// Passability is the movement oracle. A tile may be passable without being
// Walkable, e.g. shallow water.
type Passability interface {
	Passable(x, y int32) bool
}

// FlagOracle answers story/world-state flag queries.
type FlagOracle interface {
	HasFlag(name string) bool
}
