package spawn

import (
	"fmt"
	"math"

	"github.com/l1jgo/frontier/internal/data"
)

// scatterDefs generates the spawners a ring asks for with Scatter. Each
// one sits at a random angle and distance inside the band; its kind is
// drawn from the ring's stray/group weights and its pool is the ring pool.
func (d *Director) scatterDefs() []data.SpawnerDef {
	var out []data.SpawnerDef
	base := d.state.Base.Center
	for _, ring := range d.state.Rings() {
		if ring.Scatter <= 0 || len(ring.Pool) == 0 {
			continue
		}
		total := ring.StrayWeight + ring.GroupWeight
		lo, hi := ring.Inner, ring.Outer
		if hi-lo > 2 {
			lo, hi = lo+1, hi-1 // keep rounding off the band edges
		}
		for i := 0; i < ring.Scatter; i++ {
			angle := d.rng.Float64() * 2 * math.Pi
			dist := lo + d.rng.Float64()*(hi-lo)
			def := data.SpawnerDef{
				ID:   fmt.Sprintf("%s_scatter_%02d", ring.Name, i),
				Kind: "solo",
				Ring: ring.Name,
				X:    int32(math.Round(base.X + dist*math.Cos(angle))),
				Y:    int32(math.Round(base.Y + dist*math.Sin(angle))),
			}
			if total > 0 && d.rng.Float64()*total >= ring.StrayWeight {
				def.Kind = "group"
			}
			out = append(out, def)
		}
	}
	return out
}
