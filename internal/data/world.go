package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BaseDef locates the base: its center and its footprint rectangle.
type BaseDef struct {
	CenterX int32 `yaml:"center_x"`
	CenterY int32 `yaml:"center_y"`
	MinX    int32 `yaml:"min_x"`
	MinY    int32 `yaml:"min_y"`
	MaxX    int32 `yaml:"max_x"`
	MaxY    int32 `yaml:"max_y"`
}

// RingDef is one distance band of world.yaml.
type RingDef struct {
	Name        string   `yaml:"name"`
	Inner       float64  `yaml:"inner"`
	Outer       float64  `yaml:"outer"`
	StrayWeight float64  `yaml:"stray_weight"`
	GroupWeight float64  `yaml:"group_weight"`
	Pool        []string `yaml:"pool"`
	LevelMin    int      `yaml:"level_min"`
	LevelMax    int      `yaml:"level_max"`
	MaxAlive    int      `yaml:"max_alive"`
	Scatter     int      `yaml:"scatter"`
}

// GuardDef is a base defender placed at load.
type GuardDef struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Level int     `yaml:"level"`
}

// WorldDef is the content of world.yaml.
type WorldDef struct {
	Base   BaseDef    `yaml:"base"`
	Rings  []RingDef  `yaml:"rings"`
	Guards []GuardDef `yaml:"guards"`
}

// LoadWorld loads the base and ring table.
func LoadWorld(path string) (*WorldDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world: %w", err)
	}
	var w WorldDef
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", path, err)
	}
	return &w, nil
}

// validate enforces the ring invariants: positive width, no overlap.
func (w *WorldDef) validate() error {
	for i, r := range w.Rings {
		if r.Name == "" {
			return fmt.Errorf("ring %d: missing name", i)
		}
		if r.Outer <= r.Inner {
			return fmt.Errorf("ring %s: outer %v must exceed inner %v", r.Name, r.Outer, r.Inner)
		}
		for _, o := range w.Rings[:i] {
			if r.Inner < o.Outer && o.Inner < r.Outer {
				return fmt.Errorf("ring %s overlaps ring %s", r.Name, o.Name)
			}
		}
	}
	for i, g := range w.Guards {
		if g.Level <= 0 {
			return fmt.Errorf("guard %d: level must be positive", i)
		}
	}
	return nil
}
