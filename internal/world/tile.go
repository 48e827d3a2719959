package world

import "math"

// Tile is an integer cell in world grid space.
type Tile struct {
	X, Y int32
}

// Vec is a continuous world position, in tile units. Tile (x,y) has its
// center at Vec{x, y}.
type Vec struct {
	X, Y float64
}

func (t Tile) Vec() Vec { return Vec{X: float64(t.X), Y: float64(t.Y)} }

// Tile returns the tile containing v.
func (v Vec) Tile() Tile {
	return Tile{X: int32(math.Round(v.X)), Y: int32(math.Round(v.Y))}
}

// Dist is the Euclidean distance; all radii (aggro, leash, load gates) use it.
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Toward returns v moved by at most step along the straight line to dst.
func (v Vec) Toward(dst Vec, step float64) Vec {
	d := v.Dist(dst)
	if d <= step || d == 0 {
		return dst
	}
	k := step / d
	return Vec{X: v.X + (dst.X-v.X)*k, Y: v.Y + (dst.Y-v.Y)*k}
}

// Chebyshev returns the king-move tile distance between two tiles.
func Chebyshev(a, b Tile) int32 {
	dx := abs32(a.X - b.X)
	dy := abs32(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

// Footprint is the 3×3 block of tiles a slot reserves, centered on Center.
type Footprint struct {
	Center Tile
}

// Tiles returns the nine tiles of the footprint in row-major order.
func (f Footprint) Tiles() []Tile {
	out := make([]Tile, 0, 9)
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			out = append(out, Tile{X: f.Center.X + dx, Y: f.Center.Y + dy})
		}
	}
	return out
}

// Overlaps reports whether two footprints share a tile.
func (f Footprint) Overlaps(o Footprint) bool {
	return Chebyshev(f.Center, o.Center) <= 2
}

// Touches reports whether two footprints share a tile or an edge/corner.
func (f Footprint) Touches(o Footprint) bool {
	return Chebyshev(f.Center, o.Center) <= 3
}

// Spiral visits tiles in square rings of growing radius around center, from
// radius 0 up to maxRadius, and returns the first tile for which accept
// returns true. Within a ring, tiles are visited clockwise starting from the
// top-left corner, so the search order is deterministic.
func Spiral(center Tile, maxRadius int32, accept func(Tile) bool) (Tile, bool) {
	if accept(center) {
		return center, true
	}
	for r := int32(1); r <= maxRadius; r++ {
		// top edge, left to right
		for dx := -r; dx <= r; dx++ {
			if t := (Tile{center.X + dx, center.Y - r}); accept(t) {
				return t, true
			}
		}
		// right edge, top to bottom (corners already visited)
		for dy := -r + 1; dy <= r; dy++ {
			if t := (Tile{center.X + r, center.Y + dy}); accept(t) {
				return t, true
			}
		}
		// bottom edge, right to left
		for dx := r - 1; dx >= -r; dx-- {
			if t := (Tile{center.X + dx, center.Y + r}); accept(t) {
				return t, true
			}
		}
		// left edge, bottom to top
		for dy := r - 1; dy > -r; dy-- {
			if t := (Tile{center.X - r, center.Y + dy}); accept(t) {
				return t, true
			}
		}
	}
	return Tile{}, false
}

// Rect is an inclusive tile rectangle.
type Rect struct {
	Min, Max Tile
}

// Contains reports whether t lies inside r.
func (r Rect) Contains(t Tile) bool {
	return t.X >= r.Min.X && t.X <= r.Max.X && t.Y >= r.Min.Y && t.Y <= r.Max.Y
}

// Grow returns r padded by n tiles on every side.
func (r Rect) Grow(n int32) Rect {
	return Rect{
		Min: Tile{X: r.Min.X - n, Y: r.Min.Y - n},
		Max: Tile{X: r.Max.X + n, Y: r.Max.Y + n},
	}
}
