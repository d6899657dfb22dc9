package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ContentType drives instance retirement policy.
type ContentType string

const (
	ContentOpenWorld  ContentType = "open_world"
	ContentExpedition ContentType = "expedition"
	ContentDungeon    ContentType = "dungeon"
	ContentRaid       ContentType = "raid"
)

// ZoneTemplate describes one world area.
type ZoneTemplate struct {
	WorldID uint32      `yaml:"world_id"`
	Name    string      `yaml:"name"`
	Content ContentType `yaml:"content"`
	SpawnX  float32     `yaml:"spawn_x"`
	SpawnY  float32     `yaml:"spawn_y"`
	SpawnZ  float32     `yaml:"spawn_z"`
}

type zoneListFile struct {
	Zones []ZoneTemplate `yaml:"zones"`
}

// ZoneTable holds all world areas indexed by WorldID.
type ZoneTable struct {
	zones map[uint32]*ZoneTemplate
}

func LoadZoneTable(path string) (*ZoneTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	var f zoneListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}
	t := &ZoneTable{zones: make(map[uint32]*ZoneTemplate, len(f.Zones))}
	for i := range f.Zones {
		z := &f.Zones[i]
		t.zones[z.WorldID] = z
	}
	return t, nil
}

// Get returns a zone template by world ID, or nil if not found.
func (t *ZoneTable) Get(worldID uint32) *ZoneTemplate {
	return t.zones[worldID]
}

func (t *ZoneTable) Count() int {
	return len(t.zones)
}
