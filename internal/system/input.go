package system

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	coresys "github.com/l1jgo/frontier/internal/core/system"
	"github.com/l1jgo/frontier/internal/persist"
	"github.com/l1jgo/frontier/internal/spawn"
	"github.com/l1jgo/frontier/internal/world"
	"go.uber.org/zap"
)

// Command is one operator instruction queued for the game loop.
type Command struct {
	Op     string // move, flag, hit, disable, guard
	X, Y   float64
	Name   string
	On     bool
	Actor  world.ActorID
	Amount float64
	Level  int
}

var (
	errUsage     = errors.New("usage: move X Y | flag NAME on|off | hit ACTOR DMG | disable SPAWNER | guard X Y LEVEL")
	errBadDamage = errors.New("damage must be a positive number")
)

// ParseCommand parses one console line.
func ParseCommand(line string) (Command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, errUsage
	}
	cmd := Command{Op: strings.ToLower(f[0])}
	var err error
	switch cmd.Op {
	case "move":
		if len(f) != 3 {
			return Command{}, errUsage
		}
		if cmd.X, err = strconv.ParseFloat(f[1], 64); err == nil {
			cmd.Y, err = strconv.ParseFloat(f[2], 64)
		}
	case "flag":
		if len(f) != 3 || (f[2] != "on" && f[2] != "off") {
			return Command{}, errUsage
		}
		cmd.Name, cmd.On = f[1], f[2] == "on"
	case "hit":
		if len(f) != 3 {
			return Command{}, errUsage
		}
		var id uint64
		if id, err = strconv.ParseUint(f[1], 10, 64); err == nil {
			cmd.Actor = world.ActorID(id)
			cmd.Amount, err = strconv.ParseFloat(f[2], 64)
		}
		if err == nil && (math.IsNaN(cmd.Amount) || cmd.Amount <= 0 || math.IsInf(cmd.Amount, 0)) {
			err = errBadDamage
		}
	case "disable":
		if len(f) != 2 {
			return Command{}, errUsage
		}
		cmd.Name = f[1]
	case "guard":
		if len(f) != 4 {
			return Command{}, errUsage
		}
		if cmd.X, err = strconv.ParseFloat(f[1], 64); err == nil {
			if cmd.Y, err = strconv.ParseFloat(f[2], 64); err == nil {
				cmd.Level, err = strconv.Atoi(f[3])
			}
		}
	default:
		return Command{}, errUsage
	}
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", cmd.Op, err)
	}
	return cmd, nil
}

// InputSystem drains the operator command queue and applies each command
// to the world. Phase 0 (Input).
type InputSystem struct {
	world      *world.State
	director   *spawn.Director
	combat     *DispositionSystem
	flags      *persist.FlagSet
	flagOut    chan<- persist.FlagChange // nil without a database
	queue      <-chan Command
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	ws *world.State,
	d *spawn.Director,
	combat *DispositionSystem,
	flags *persist.FlagSet,
	flagOut chan<- persist.FlagChange,
	queue <-chan Command,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		world:      ws,
		director:   d,
		combat:     combat,
		flags:      flags,
		flagOut:    flagOut,
		queue:      queue,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd := <-s.queue:
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *InputSystem) apply(cmd Command) {
	switch cmd.Op {
	case "move":
		if s.world.Player != nil {
			s.world.Player.Pos = world.Vec{X: cmd.X, Y: cmd.Y}
		}
	case "flag":
		s.flags.Set(cmd.Name, cmd.On)
		if s.flagOut != nil {
			select {
			case s.flagOut <- persist.FlagChange{Name: cmd.Name, On: cmd.On}:
			default:
				s.log.Warn("flag writer busy, change not persisted", zap.String("flag", cmd.Name))
			}
		}
	case "hit":
		dmg := s.combat.DamageActor(cmd.Actor, cmd.Amount)
		s.log.Info("hit", zap.Uint64("actor", uint64(cmd.Actor)), zap.Float64("damage", dmg))
	case "disable":
		if err := s.director.DisableSpawner(cmd.Name); err != nil {
			s.log.Warn("disable spawner", zap.Error(err))
		}
	case "guard":
		s.world.Guards = append(s.world.Guards, &world.Guard{
			ID:    uint64(len(s.world.Guards) + 1),
			Pos:   world.Vec{X: cmd.X, Y: cmd.Y},
			Level: cmd.Level,
		})
	}
}
