package system

import (
	"math/rand"
	"time"

	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// lootRand is swappable for deterministic drop tests.
var lootRand = rand.Float64

// ApplyDamage routes damage into a target: absorb shields first (oldest
// first), then health, then death. Returns the health damage actually dealt
// and the amount absorbed. Zone actor goroutine only.
func ApplyDamage(z *world.ZoneInstance, attackerGUID uint64, target *world.Entity, amount int32, now time.Time) (dealt, absorbed int32) {
	if amount <= 0 || !target.Alive() {
		return 0, 0
	}

	remaining, absorbed, depleted := target.AbsorbDamage(amount, now)
	for _, effID := range depleted {
		z.BroadcastNear(target.Pos, BuildBuffRemove(target.GUID, effID, packet.BuffRemoveCancelled))
	}

	if remaining > 0 {
		target.Health -= remaining
		if target.Health < 0 {
			target.Health = 0
		}
		dealt = remaining
	}

	// Damage pulls an idle creature into combat and feeds its threat table.
	if target.Kind == world.KindCreature && target.AIState != world.AIDead {
		AddThreat(target, attackerGUID, int64(amount))
		if target.AIState == world.AIIdle {
			EnterCombat(z, target, attackerGUID, now)
		} else if target.AIState == world.AICombat {
			target.LastProgressAt = now
		}
	}

	// A creature attacker made combat progress.
	if atk, ok := z.Entities[attackerGUID]; ok && atk.Kind == world.KindCreature && atk.AIState == world.AICombat {
		atk.LastProgressAt = now
	}

	if target.Health == 0 {
		kill(z, target, attackerGUID, now)
	}
	return dealt, absorbed
}

// ApplyHeal raises health up to max and credits threat to the healer on
// every creature currently hating the healed target.
func ApplyHeal(z *world.ZoneInstance, casterGUID uint64, target *world.Entity, amount int32, now time.Time) int32 {
	if amount <= 0 || !target.Alive() {
		return 0
	}
	healed := amount
	if target.Health+healed > target.MaxHealth {
		healed = target.MaxHealth - target.Health
	}
	target.Health += healed
	if healed == 0 {
		return 0
	}

	threat := int64(float64(healed) * HealThreatFactor)
	for _, c := range z.Creatures {
		if c.AIState != world.AICombat {
			continue
		}
		if _, hated := c.Threat[target.GUID]; hated {
			AddThreat(c, casterGUID, threat)
			c.LastProgressAt = now
		}
	}
	return healed
}

// kill finalizes a death. Effects are cleared without per-effect removal
// packets; the despawn broadcast covers it.
func kill(z *world.ZoneInstance, e *world.Entity, killerGUID uint64, now time.Time) {
	e.ClearEffects()

	if e.Kind == world.KindPlayer {
		// Players release back to the zone entry point at full health.
		respawnPlayer(z, e)
		return
	}

	e.AIState = world.AIDead
	ClearThreat(e)
	rollLoot(z, e, killerGUID)

	pos := e.Pos
	z.RemoveEntity(e.GUID)
	z.BroadcastNear(pos, BuildEntityDestroy(e.GUID))

	tmpl := e.Template
	spawn := e.SpawnPos
	rot := e.Rot
	z.ScheduleAfter(z.Cfg.RespawnDelay, func(z *world.ZoneInstance) {
		// New life, new GUID. The dead entity is gone for good.
		fresh := z.SpawnCreature(tmpl, spawn, rot)
		z.BroadcastNear(spawn, BuildEntityCreate(fresh))
	})
}

func respawnPlayer(z *world.ZoneInstance, p *world.Entity) {
	tmpl := z.Static.Zones.Get(z.WorldID)
	if tmpl != nil {
		z.UpdatePosition(p.GUID, world.Vec3{X: tmpl.SpawnX, Y: tmpl.SpawnY, Z: tmpl.SpawnZ}, p.Rot, world.Vec3{})
	}
	p.Health = p.MaxHealth
	z.BroadcastNear(p.Pos, BuildMovement(p, 0, uint32(z.Now().UnixMilli())))
}

// rollLoot rolls the creature's loot table. Item delivery belongs to the
// inventory service; the core records the roll.
func rollLoot(z *world.ZoneInstance, c *world.Entity, killerGUID uint64) {
	if c.Template == nil || c.Template.LootTableID == 0 {
		return
	}
	table := z.Static.Loot.Get(c.Template.LootTableID)
	if table == nil {
		return
	}
	for _, entry := range table.Entries {
		if lootRand() < entry.Chance {
			z.Log.Info("掉落判定",
				zap.Uint64("creature", c.GUID),
				zap.Uint64("killer", killerGUID),
				zap.Uint32("item", entry.ItemID),
			)
		}
	}
}
