package system

import (
	"time"

	"github.com/l1jgo/frontier/internal/core/event"
	coresys "github.com/l1jgo/frontier/internal/core/system"
)

// OutputSystem flushes the event outbox so subscribers see everything the
// population and disposition phases emitted this tick. Phase 3 (Output).
type OutputSystem struct {
	bus *event.Bus
}

func NewOutputSystem(bus *event.Bus) *OutputSystem {
	return &OutputSystem{bus: bus}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.bus.Flush()
}
