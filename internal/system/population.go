package system

import (
	"time"

	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/spawn"
	"go.uber.org/zap"
)

// PopulationSystem runs the spawn director's refill pass on a fixed
// interval, independent of the frame rate. Phase 1 (Population).
type PopulationSystem struct {
	director *spawn.Director
	interval time.Duration
	acc      time.Duration
	log      *zap.Logger
}

func NewPopulationSystem(d *spawn.Director, interval time.Duration, log *zap.Logger) *PopulationSystem {
	return &PopulationSystem{director: d, interval: interval, log: log}
}

func (s *PopulationSystem) Phase() coresys.Phase { return coresys.PhasePopulation }

func (s *PopulationSystem) Update(dt time.Duration) {
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc -= s.interval
	if s.acc >= s.interval {
		s.acc = 0 // fell behind; one pass catches up
	}
	if n := s.director.Tick(); n > 0 {
		s.log.Debug("population pass", zap.Int("spawned", n))
	}
}
