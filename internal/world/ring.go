package world

// Ring is a distance band around the base center. Rings are ordered by
// Inner and do not overlap. Static after load.
type Ring struct {
	Name        string
	Inner       float64 // inclusive
	Outer       float64 // exclusive
	StrayWeight float64
	GroupWeight float64
	Pool        []string
	LevelMin    int
	LevelMax    int
	MaxAlive    int // 0 = uncapped
	Scatter     int // generated spawners
}

// Contains reports whether a distance from base falls in the band.
func (r *Ring) Contains(dist float64) bool {
	return dist >= r.Inner && dist < r.Outer
}

// Base is the fixed settlement the world is built around. Spawning is
// forbidden inside Bounds grown by the configured buffer.
type Base struct {
	Center Vec
	Bounds Rect
}
