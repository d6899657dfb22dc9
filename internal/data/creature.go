package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AIType controls whether a creature initiates combat on its own.
type AIType string

const (
	AIPassive    AIType = "passive"
	AIDefensive  AIType = "defensive"
	AIAggressive AIType = "aggressive"
)

// CreatureTemplate holds static data for a creature type loaded from YAML.
// Read-only after load, shared across all zone instances.
type CreatureTemplate struct {
	TemplateID       uint32  `yaml:"template_id"`
	Display          uint32  `yaml:"display"`
	Name             string  `yaml:"name"`
	FactionID        uint32  `yaml:"faction_id"`
	Level            int32   `yaml:"level"`
	MaxHealth        int32   `yaml:"max_health"`
	AggroRange       float32 `yaml:"aggro_range"`
	LeashRange       float32 `yaml:"leash_range"`
	SocialAggroRange float32 `yaml:"social_aggro_range"`
	AIType           AIType  `yaml:"ai_type"`
	AttackSpeedMs    int32   `yaml:"attack_speed_ms"`
	AttackDamage     int32   `yaml:"attack_damage"`
	LootTableID      uint32  `yaml:"loot_table_id"`
	DialogScript     string  `yaml:"dialog_script"` // Lua script name, empty = no dialog
}

// SpawnEntry defines where a creature stands in a world area.
type SpawnEntry struct {
	TemplateID      uint32  `yaml:"template_id"`
	WorldID         uint32  `yaml:"world_id"`
	X               float32 `yaml:"x"`
	Y               float32 `yaml:"y"`
	Z               float32 `yaml:"z"`
	RotZ            float32 `yaml:"rot_z"`
	RespawnDelaySec int     `yaml:"respawn_delay"` // 0 = world default
}

type creatureListFile struct {
	Creatures []CreatureTemplate `yaml:"creatures"`
	Spawns    []SpawnEntry       `yaml:"spawns"`
}

// CreatureTable holds all creature templates indexed by TemplateID, plus the
// spawn roster grouped by world.
type CreatureTable struct {
	templates map[uint32]*CreatureTemplate
	spawns    map[uint32][]SpawnEntry // world_id → entries
}

// LoadCreatureTable loads creature templates and spawns from a YAML file.
func LoadCreatureTable(path string) (*CreatureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creatures: %w", err)
	}
	var f creatureListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse creatures: %w", err)
	}
	t := &CreatureTable{
		templates: make(map[uint32]*CreatureTemplate, len(f.Creatures)),
		spawns:    make(map[uint32][]SpawnEntry),
	}
	for i := range f.Creatures {
		c := &f.Creatures[i]
		t.templates[c.TemplateID] = c
	}
	for _, sp := range f.Spawns {
		t.spawns[sp.WorldID] = append(t.spawns[sp.WorldID], sp)
	}
	return t, nil
}

// Get returns a creature template by ID, or nil if not found.
func (t *CreatureTable) Get(id uint32) *CreatureTemplate {
	return t.templates[id]
}

// SpawnsFor returns the spawn roster for a world area.
func (t *CreatureTable) SpawnsFor(worldID uint32) []SpawnEntry {
	return t.spawns[worldID]
}

// Count returns the number of loaded templates.
func (t *CreatureTable) Count() int {
	return len(t.templates)
}
