package data

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownActorType is returned when a spawner references a type the
// actor table does not define.
var ErrUnknownActorType = errors.New("unknown actor type")

// ActorType holds static data for one creature type, loaded from YAML.
type ActorType struct {
	Name        string  `yaml:"name"`
	HP          float64 `yaml:"hp"`
	HPPerLevel  float64 `yaml:"hp_per_level"`
	AggroRadius float64 `yaml:"aggro_radius"` // 0 = global default
	LeashRadius float64 `yaml:"leash_radius"` // 0 = global default
	EliteHPMul  float64 `yaml:"elite_hp_mul"` // 0 = 1.5
	NPE         bool    `yaml:"npe"`          // new-player critter: never aggroes
}

// MaxHPAt returns the type's hit points at a level, with the elite bonus applied.
func (t *ActorType) MaxHPAt(level int, elite bool) float64 {
	hp := t.HP + t.HPPerLevel*float64(level)
	if hp < 1 {
		hp = 1
	}
	if elite {
		mul := t.EliteHPMul
		if mul == 0 {
			mul = 1.5
		}
		hp *= mul
	}
	return hp
}

// SpawnerDef is one entry of spawn_list.yaml.
type SpawnerDef struct {
	ID             string        `yaml:"id"`
	Kind           string        `yaml:"kind"` // "solo" or "group"
	Ring           string        `yaml:"ring"`
	X              int32         `yaml:"x"`
	Y              int32         `yaml:"y"`
	Radius         int32         `yaml:"radius"`
	Pool           []string      `yaml:"pool"` // empty = ring pool
	LevelMin       int           `yaml:"level_min"`
	LevelMax       int           `yaml:"level_max"`
	GroupMin       int           `yaml:"group_min"`
	GroupMax       int           `yaml:"group_max"`
	EliteChance    float64       `yaml:"elite_chance"`
	EliteCap       int           `yaml:"elite_cap"`
	Respawn        time.Duration `yaml:"respawn"`
	AggroRadius    float64       `yaml:"aggro_radius"`
	LeashRadius    float64       `yaml:"leash_radius"`
	DeaggroPad     float64       `yaml:"deaggro_pad"`
	RequiredFlags  []string      `yaml:"required_flags"`
	ForbiddenFlags []string      `yaml:"forbidden_flags"`
	Gate           string        `yaml:"gate"` // Lua boolean expression
}

type actorListFile struct {
	Actors []ActorType `yaml:"actors"`
}

type spawnListFile struct {
	Spawners []SpawnerDef `yaml:"spawners"`
}

// ActorTable holds all actor types indexed by name.
type ActorTable struct {
	types map[string]*ActorType
}

// NewActorTable builds a table from in-memory types.
func NewActorTable(types []ActorType) *ActorTable {
	t := &ActorTable{types: make(map[string]*ActorType, len(types))}
	for i := range types {
		at := &types[i]
		t.types[at.Name] = at
	}
	return t
}

// LoadActorTable loads actor types from a YAML file.
func LoadActorTable(path string) (*ActorTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actor_list: %w", err)
	}
	var f actorListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse actor_list: %w", err)
	}
	return NewActorTable(f.Actors), nil
}

// Get returns an actor type by name, or nil if not found.
func (t *ActorTable) Get(name string) *ActorType {
	return t.types[name]
}

// Lookup is Get with an error for unknown names.
func (t *ActorTable) Lookup(name string) (*ActorType, error) {
	at := t.types[name]
	if at == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActorType, name)
	}
	return at, nil
}

// Count returns the number of loaded types.
func (t *ActorTable) Count() int {
	return len(t.types)
}

// LoadSpawnList loads spawner definitions from a YAML file. Durations are
// written as Go duration strings ("90s").
func LoadSpawnList(path string) ([]SpawnerDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Spawners))
	for i := range f.Spawners {
		def := &f.Spawners[i]
		if def.ID == "" {
			return nil, fmt.Errorf("spawn_list entry %d: missing id", i)
		}
		if _, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("spawn_list: duplicate spawner id %q", def.ID)
		}
		seen[def.ID] = struct{}{}
		if def.Kind != "solo" && def.Kind != "group" {
			return nil, fmt.Errorf("spawner %s: kind must be solo or group, got %q", def.ID, def.Kind)
		}
	}
	return f.Spawners, nil
}
