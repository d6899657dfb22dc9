package system

import (
	stdnet "net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/data"
	gonet "github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

const testCreaturesYAML = `
creatures:
  - template_id: 2
    name: "Razortail Skug"
    faction_id: 9001
    level: 3
    max_health: 100
    aggro_range: 15.0
    leash_range: 40.0
    social_aggro_range: 10.0
    ai_type: aggressive
    attack_speed_ms: 2000
    attack_damage: 8
    loot_table_id: 1
  - template_id: 5
    name: "Dozing Dawngrazer"
    faction_id: 9001
    level: 2
    max_health: 60
    ai_type: passive
    attack_speed_ms: 2500
    attack_damage: 4
spawns: []
`

const testSpellsYAML = `
spells:
  - spell_id: 100
    name: "Zap"
    cost: 10
    range: 25.0
    effects:
      - kind: damage
        amount: 22
  - spell_id: 200
    name: "Mend"
    cost: 10
    effects:
      - kind: heal
        amount: 40
  - spell_id: 300
    name: "Shield"
    cost: 10
    effects:
      - kind: absorb
        amount: 100
        duration_ms: 10000
  - spell_id: 400
    name: "Haste"
    cost: 10
    effects:
      - kind: stat_mod
        amount: 2
        stat: 1
        duration_ms: 8000
  - spell_id: 500
    name: "Venom"
    cost: 10
    range: 25.0
    effects:
      - kind: periodic
        amount: 6
        duration_ms: 9000
        tick_interval_ms: 3000
        is_debuff: true
  - spell_id: 600
    name: "Regrowth"
    cost: 10
    effects:
      - kind: periodic
        amount: 12
        duration_ms: 12000
        tick_interval_ms: 2000
        periodic_heals: true
  - spell_id: 700
    name: "Snipe"
    cast_time_ms: 100
    cost: 10
    range: 25.0
    effects:
      - kind: damage
        amount: 50
`

const testZonesYAML = `
zones:
  - world_id: 870
    name: "Northern Wilds"
    content: open_world
    spawn_x: -3200.0
    spawn_y: -800.0
    spawn_z: -580.0
`

const testLootYAML = `
loot_tables:
  - table_id: 1
    entries:
      - item_id: 10101
        chance: 1.0
        min: 1
        max: 3
      - item_id: 20010
        chance: 0.0
        min: 1
        max: 1
`

func newTestStore(t *testing.T) *data.Store {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"creatures.yaml": testCreaturesYAML,
		"spells.yaml":    testSpellsYAML,
		"zones.yaml":     testZonesYAML,
		"loot.yaml":      testLootYAML,
		"texts.yaml":     "texts: {}\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	store, err := data.LoadAll(dir, zap.NewNop())
	require.NoError(t, err)
	return store
}

func testWorldConfig() config.WorldConfig {
	return config.WorldConfig{
		DefaultWorldID:      870,
		TickRate:            10 * time.Millisecond,
		CellSize:            50,
		BroadcastRadius:     100,
		MaxCreaturesPerTick: 100,
		SpeedTolerance:      1.1,
		EvadeStep:           5,
		CombatTimeout:       30 * time.Second,
		RespawnDelay:        30 * time.Millisecond,
		MailboxSize:         256,
	}
}

func newTestZone(t *testing.T, log *zap.Logger) *world.ZoneInstance {
	t.Helper()
	var alloc world.GUIDAllocator
	return world.NewZoneInstance(870, 1, data.ContentOpenWorld, testWorldConfig(), newTestStore(t), &alloc, log)
}

func addPlayer(z *world.ZoneInstance, pos world.Vec3) *world.Entity {
	p := &world.Entity{
		GUID:        z.Alloc.Allocate(world.KindPlayer),
		Kind:        world.KindPlayer,
		Name:        "Deadeye",
		Pos:         pos,
		Faction:     world.FactionExile,
		Level:       1,
		Health:      100,
		MaxHealth:   100,
		Resource:    100,
		MaxResource: 100,
		Speed:       7,
	}
	z.AddEntity(p)
	return p
}

func addCreature(z *world.ZoneInstance, templateID uint32, pos world.Vec3) *world.Entity {
	tmpl := z.Static.Creatures.Get(templateID)
	return z.SpawnCreature(tmpl, pos, world.Vec3{})
}

// newPipeSession builds an unstarted session whose OutQueue the test drains
// directly.
func newPipeSession(t *testing.T) *gonet.Session {
	t.Helper()
	client, server := stdnet.Pipe()
	t.Cleanup(func() { client.Close() })
	return gonet.NewSession(server, 1, 64, 0, time.Second, zap.NewNop())
}
