package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EffectKind is the resolution class of one spell effect.
type EffectKind string

const (
	EffectDamage   EffectKind = "damage"
	EffectHeal     EffectKind = "heal"
	EffectAbsorb   EffectKind = "absorb"
	EffectStatMod  EffectKind = "stat_mod"
	EffectPeriodic EffectKind = "periodic"
)

// SpellEffect is one ordered effect of a spell.
type SpellEffect struct {
	Kind           EffectKind `yaml:"kind"`
	Amount         int32      `yaml:"amount"`
	Stat           uint32     `yaml:"stat"`             // stat tag for stat_mod
	DurationMs     int32      `yaml:"duration_ms"`      // absorb/stat_mod/periodic
	TickIntervalMs int32      `yaml:"tick_interval_ms"` // periodic only
	PeriodicHeals  bool       `yaml:"periodic_heals"`   // periodic pulse heals instead of damaging
	IsDebuff       bool       `yaml:"is_debuff"`
	MaxStacks      int32      `yaml:"max_stacks"`
}

// Spell holds a castable spell template. Effects resolve in declared order.
type Spell struct {
	SpellID    uint32        `yaml:"spell_id"`
	Name       string        `yaml:"name"`
	CastTimeMs int32         `yaml:"cast_time_ms"` // 0 = instant
	Cost       int32         `yaml:"cost"`
	Range      float32       `yaml:"range"` // 0 = self
	Effects    []SpellEffect `yaml:"effects"`
}

type spellListFile struct {
	Spells []Spell `yaml:"spells"`
}

// SpellTable holds all spells indexed by SpellID.
type SpellTable struct {
	spells map[uint32]*Spell
}

// LoadSpellTable loads spell templates from a YAML file.
func LoadSpellTable(path string) (*SpellTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spells: %w", err)
	}
	var f spellListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spells: %w", err)
	}
	t := &SpellTable{spells: make(map[uint32]*Spell, len(f.Spells))}
	for i := range f.Spells {
		sp := &f.Spells[i]
		t.spells[sp.SpellID] = sp
	}
	return t, nil
}

// Get returns a spell by ID, or nil if not found.
func (t *SpellTable) Get(id uint32) *Spell {
	return t.spells[id]
}

// Count returns the number of loaded spells.
func (t *SpellTable) Count() int {
	return len(t.spells)
}
