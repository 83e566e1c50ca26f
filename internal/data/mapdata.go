package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
// Maps are square and centred on the origin.
type MapInfo struct {
	Name   string  `yaml:"name"`
	Size   float32 `yaml:"size"`   // edge length in world units
	Height float32 `yaml:"height"` // ground height used for picking
}

// HalfSize is the distance from the centre to an edge.
func (m MapInfo) HalfSize() float32 { return m.Size / 2 }

// MapDataTable answers map lookups by the name the server announces.
type MapDataTable struct {
	maps map[string]*MapInfo
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

func NewMapDataTable(maps []MapInfo) (*MapDataTable, error) {
	t := &MapDataTable{maps: make(map[string]*MapInfo, len(maps))}
	for i := range maps {
		m := maps[i]
		if m.Name == "" {
			return nil, fmt.Errorf("map %d: empty name", i)
		}
		if m.Size <= 0 {
			return nil, fmt.Errorf("map %q: size %v must be positive", m.Name, m.Size)
		}
		if _, dup := t.maps[m.Name]; dup {
			return nil, fmt.Errorf("map %q: duplicate name", m.Name)
		}
		t.maps[m.Name] = &m
	}
	return t, nil
}

// LoadMapData loads map metadata from YAML.
func LoadMapData(path string) (*MapDataTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", path, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}
	return NewMapDataTable(file.Maps)
}

// Count returns the number of maps loaded.
func (t *MapDataTable) Count() int {
	return len(t.maps)
}

// Get returns metadata for a map, or nil if not found.
func (t *MapDataTable) Get(name string) *MapInfo {
	return t.maps[name]
}
