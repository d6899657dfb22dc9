package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LootEntry is one possible drop.
type LootEntry struct {
	ItemID uint32  `yaml:"item_id"`
	Chance float64 `yaml:"chance"` // 0.0-1.0
	Min    int32   `yaml:"min"`
	Max    int32   `yaml:"max"`
}

// LootTable groups the drops rolled on a creature's death.
type LootTable struct {
	TableID uint32      `yaml:"table_id"`
	Entries []LootEntry `yaml:"entries"`
}

type lootListFile struct {
	Tables []LootTable `yaml:"loot_tables"`
}

// LootTables holds all loot tables indexed by TableID.
type LootTables struct {
	tables map[uint32]*LootTable
}

func LoadLootTables(path string) (*LootTables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot: %w", err)
	}
	var f lootListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot: %w", err)
	}
	t := &LootTables{tables: make(map[uint32]*LootTable, len(f.Tables))}
	for i := range f.Tables {
		lt := &f.Tables[i]
		t.tables[lt.TableID] = lt
	}
	return t, nil
}

// Get returns a loot table by ID, or nil if not found.
func (t *LootTables) Get(id uint32) *LootTable {
	return t.tables[id]
}
