package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput       Phase = iota // 0: collaborator input (player, guards)
	PhasePopulation               // 1: spawn director refill pass
	PhaseDisposition              // 2: per-actor aggro/leash/retreat
	PhaseOutput                   // 3: flush the event outbox
	PhasePersist                  // 4: snapshot respawn timers
	PhaseCleanup                  // 5: destroy dead actors
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePopulation:
		return "population"
	case PhaseDisposition:
		return "disposition"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
