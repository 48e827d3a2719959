package system

import (
	"time"

	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/world"
)

// CleanupSystem removes actors killed this tick from the live collection.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.FlushDead()
}
