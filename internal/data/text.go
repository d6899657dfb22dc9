package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TextTable holds localized strings used by chat and dialog packets.
// Read-only after load, safe for concurrent lookup.
type TextTable struct {
	texts map[uint32]string
}

type textListFile struct {
	Texts map[uint32]string `yaml:"texts"`
}

func LoadTextTable(path string) (*TextTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texts: %w", err)
	}
	var f textListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse texts: %w", err)
	}
	return &TextTable{texts: f.Texts}, nil
}

// Get returns the localized string for id. ok is false when missing;
// callers fall back to the raw id.
func (t *TextTable) Get(id uint32) (string, bool) {
	s, ok := t.texts[id]
	return s, ok
}

func (t *TextTable) Count() int {
	return len(t.texts)
}
