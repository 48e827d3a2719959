package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for one terrain sheet, loaded from map_list.yaml.
type MapInfo struct {
	MapID  int16  `yaml:"map_id"`
	Name   string `yaml:"name"`
	StartX int32  `yaml:"start_x"`
	EndX   int32  `yaml:"end_x"`
	StartY int32  `yaml:"start_y"`
	EndY   int32  `yaml:"end_y"`
}

// sheet stores loaded tile data + metadata for one map sheet.
type sheet struct {
	info   MapInfo
	tiles  []byte // flat array [x * height + y]
	width  int32
	height int32
}

// Tile values in the map text files.
const (
	tileBlocked  byte = 0
	tileWalkable byte = 1
	tileWater    byte = 2 // walkable for pathing, never a spawn tile
)

// Terrain is the walkability oracle built from map sheets. Tiles covered
// by no sheet are open ground unless Bounded is set.
type Terrain struct {
	sheets  []*sheet
	Bounded bool
}

type mapListFile struct {
	Maps    []MapInfo `yaml:"maps"`
	Bounded bool      `yaml:"bounded"`
}

// LoadTerrain loads sheet metadata from YAML and tile data from text files.
// yamlPath: path to map_list.yaml
// tileDir: directory containing {mapid}.txt tile files
func LoadTerrain(yamlPath, tileDir string) (*Terrain, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	t := &Terrain{Bounded: file.Bounded}
	for _, info := range file.Maps {
		width := info.EndX - info.StartX + 1
		height := info.EndY - info.StartY + 1
		if width <= 0 || height <= 0 {
			continue
		}
		tiles, err := loadTileFile(tileDir, int(info.MapID), int(width), int(height))
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", info.MapID, err)
		}
		t.sheets = append(t.sheets, &sheet{info: info, tiles: tiles, width: width, height: height})
	}
	return t, nil
}

// loadTileFile reads a CSV tile file: each line is a row of comma-separated
// byte values, one row per Y, one column per X.
func loadTileFile(dir string, mapID, xSize, ySize int) ([]byte, error) {
	path := filepath.Join(dir, strconv.Itoa(mapID)+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tiles := make([]byte, xSize*ySize)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	y := 0
	for scanner.Scan() && y < ySize {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= xSize {
				break
			}
			val, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 16)
			if err != nil {
				val = int64(tileBlocked)
			}
			tiles[x*ySize+y] = byte(val)
			x++
		}
		y++
	}
	return tiles, scanner.Err()
}

// Count returns the number of sheets loaded.
func (t *Terrain) Count() int {
	return len(t.sheets)
}

// lookup returns the tile byte at world coordinates and whether any sheet
// covers it.
func (t *Terrain) lookup(x, y int32) (byte, bool) {
	for _, s := range t.sheets {
		lx := x - s.info.StartX
		ly := y - s.info.StartY
		if lx < 0 || lx >= s.width || ly < 0 || ly >= s.height {
			continue
		}
		return s.tiles[int(lx)*int(s.height)+int(ly)], true
	}
	return 0, false
}

// Walkable reports whether a creature may stand on and spawn at (x,y).
func (t *Terrain) Walkable(x, y int32) bool {
	v, ok := t.lookup(x, y)
	if !ok {
		return !t.Bounded
	}
	return v == tileWalkable
}

// Passable reports whether movement may cross (x,y). Water is passable but
// not Walkable, so retreating actors can wade but nothing spawns in it.
func (t *Terrain) Passable(x, y int32) bool {
	v, ok := t.lookup(x, y)
	if !ok {
		return !t.Bounded
	}
	return v == tileWalkable || v == tileWater
}

// SetBlocked overrides one tile, e.g. when a structure is built on it.
func (t *Terrain) SetBlocked(x, y int32, blocked bool) {
	for _, s := range t.sheets {
		lx := x - s.info.StartX
		ly := y - s.info.StartY
		if lx < 0 || lx >= s.width || ly < 0 || ly >= s.height {
			continue
		}
		v := tileWalkable
		if blocked {
			v = tileBlocked
		}
		s.tiles[int(lx)*int(s.height)+int(ly)] = v
		return
	}
}
