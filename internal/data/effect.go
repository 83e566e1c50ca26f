package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EffectKind is the static metadata of one impact effect ("duang").
type EffectKind struct {
	Kind       uint16 `yaml:"kind"`
	Name       string `yaml:"name"`
	DurationMs int    `yaml:"duration_ms"`
}

func (k EffectKind) Duration() time.Duration {
	return time.Duration(k.DurationMs) * time.Millisecond
}

type effectListFile struct {
	Effects []EffectKind `yaml:"effects"`
}

// EffectTable holds effect metadata indexed by kind.
type EffectTable struct {
	kinds map[uint16]EffectKind
}

func NewEffectTable(kinds []EffectKind) (*EffectTable, error) {
	t := &EffectTable{kinds: make(map[uint16]EffectKind, len(kinds))}
	for _, k := range kinds {
		if k.DurationMs <= 0 {
			return nil, fmt.Errorf("effect kind %d (%s): duration must be positive", k.Kind, k.Name)
		}
		if _, dup := t.kinds[k.Kind]; dup {
			return nil, fmt.Errorf("duplicate effect kind %d", k.Kind)
		}
		t.kinds[k.Kind] = k
	}
	return t, nil
}

// Get returns the effect kind, or false if none defined.
func (t *EffectTable) Get(kind uint16) (EffectKind, bool) {
	k, ok := t.kinds[kind]
	return k, ok
}

// Count returns the number of effect kinds.
func (t *EffectTable) Count() int {
	return len(t.kinds)
}

// LoadEffectTable loads effect metadata from a YAML file.
func LoadEffectTable(path string) (*EffectTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect_list: %w", err)
	}
	var f effectListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse effect_list: %w", err)
	}
	t, err := NewEffectTable(f.Effects)
	if err != nil {
		return nil, fmt.Errorf("effect_list: %w", err)
	}
	return t, nil
}
