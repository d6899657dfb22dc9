package data

import (
	"path/filepath"

	"go.uber.org/zap"
)

// Store aggregates every static table. Loaded once at startup and read-only
// afterwards, so it is safe to share across zone actors without locks.
type Store struct {
	Creatures *CreatureTable
	Spells    *SpellTable
	Zones     *ZoneTable
	Loot      *LootTables
	Texts     *TextTable
}

// LoadAll loads every table from the given directory.
func LoadAll(dir string, log *zap.Logger) (*Store, error) {
	creatures, err := LoadCreatureTable(filepath.Join(dir, "creatures.yaml"))
	if err != nil {
		return nil, err
	}
	spells, err := LoadSpellTable(filepath.Join(dir, "spells.yaml"))
	if err != nil {
		return nil, err
	}
	zones, err := LoadZoneTable(filepath.Join(dir, "zones.yaml"))
	if err != nil {
		return nil, err
	}
	loot, err := LoadLootTables(filepath.Join(dir, "loot.yaml"))
	if err != nil {
		return nil, err
	}
	texts, err := LoadTextTable(filepath.Join(dir, "texts.yaml"))
	if err != nil {
		return nil, err
	}
	log.Info("靜態資料載入完成",
		zap.Int("creatures", creatures.Count()),
		zap.Int("spells", spells.Count()),
		zap.Int("zones", zones.Count()),
		zap.Int("texts", texts.Count()),
	)
	return &Store{
		Creatures: creatures,
		Spells:    spells,
		Zones:     zones,
		Loot:      loot,
		Texts:     texts,
	}, nil
}
