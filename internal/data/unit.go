package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// UnitKind is the static metadata of one unit kind.
type UnitKind struct {
	Kind uint16  `yaml:"kind"`
	Name string  `yaml:"name"`
	FOV  float32 `yaml:"fov"` // auto-target acquisition radius, world units
}

type unitListFile struct {
	Units []UnitKind `yaml:"units"`
}

// UnitTable holds all unit kinds ordered by kind index. Kind indices are
// dense from 0 so they double as weight-table positions.
type UnitTable struct {
	kinds  []UnitKind
	byName map[string]uint16
}

// NewUnitTable validates and indexes kinds.
func NewUnitTable(kinds []UnitKind) (*UnitTable, error) {
	sorted := append([]UnitKind(nil), kinds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Kind < sorted[j].Kind })

	t := &UnitTable{kinds: sorted, byName: make(map[string]uint16, len(sorted))}
	for i, k := range sorted {
		if int(k.Kind) != i {
			return nil, fmt.Errorf("unit kinds must be dense from 0: position %d has kind %d", i, k.Kind)
		}
		if k.FOV < 0 {
			return nil, fmt.Errorf("unit kind %d (%s): negative fov", k.Kind, k.Name)
		}
		if _, dup := t.byName[k.Name]; dup {
			return nil, fmt.Errorf("duplicate unit name %q", k.Name)
		}
		t.byName[k.Name] = k.Kind
	}
	return t, nil
}

// Get returns the kind, or false for an index the table does not know.
func (t *UnitTable) Get(kind uint16) (UnitKind, bool) {
	if int(kind) >= len(t.kinds) {
		return UnitKind{}, false
	}
	return t.kinds[kind], true
}

// FOV returns the field-of-view radius of kind, 0 when unknown.
func (t *UnitTable) FOV(kind uint16) float32 {
	k, _ := t.Get(kind)
	return k.FOV
}

// Lookup resolves a unit name to its kind index.
func (t *UnitTable) Lookup(name string) (uint16, bool) {
	k, ok := t.byName[name]
	return k, ok
}

// Kinds returns all kinds in ascending order. Callers must not modify it.
func (t *UnitTable) Kinds() []UnitKind {
	return t.kinds
}

// Count returns the number of unit kinds.
func (t *UnitTable) Count() int {
	return len(t.kinds)
}

// LoadUnitTable loads unit metadata from a YAML file.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit_list: %w", err)
	}
	var f unitListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse unit_list: %w", err)
	}
	t, err := NewUnitTable(f.Units)
	if err != nil {
		return nil, fmt.Errorf("unit_list: %w", err)
	}
	return t, nil
}
