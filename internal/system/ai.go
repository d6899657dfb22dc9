package system

import (
	"math"
	"time"

	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/world"
)

// evadeArrival is how close to spawn counts as having returned.
const evadeArrival float32 = 2

// TickAI drives the creature state machine for one tick, bounded by the
// configured per-tick work cap. Unserved creatures resume next tick in
// round-robin order. Zone actor goroutine only.
func TickAI(z *world.ZoneInstance, now time.Time) {
	for _, guid := range z.CreatureBudget(z.Cfg.MaxCreaturesPerTick) {
		c := z.Creatures[guid]
		if c == nil {
			continue
		}
		switch c.AIState {
		case world.AIIdle:
			tickIdle(z, c, now)
		case world.AICombat:
			tickCombat(z, c, now)
		case world.AIEvade:
			tickEvade(z, c)
		}
	}
}

// tickIdle scans for a hostile player inside aggro range. Nearest wins.
func tickIdle(z *world.ZoneInstance, c *world.Entity, now time.Time) {
	tmpl := c.Template
	if tmpl == nil || tmpl.AIType != data.AIAggressive || tmpl.AggroRange <= 0 {
		return
	}

	var best *world.Entity
	var bestD2 float32
	for _, p := range z.PlayersInRange(c.Pos, tmpl.AggroRange) {
		if !world.IsHostile(c.Faction, p.Faction) {
			continue
		}
		d2 := c.Pos.DistSq(p.Pos)
		if best == nil || d2 < bestD2 {
			best = p
			bestD2 = d2
		}
	}
	if best != nil {
		EnterCombat(z, c, best.GUID, now)
	}
}

// EnterCombat puts a creature into combat against target and pulls idle
// same-faction neighbours onto the same target. The pull does not chain:
// only the initiating creature scans, and only idle creatures are pulled, so
// a pulled creature entering combat cannot recruit further.
func EnterCombat(z *world.ZoneInstance, c *world.Entity, targetGUID uint64, now time.Time) {
	if c.AIState != world.AIIdle {
		return
	}
	c.AIState = world.AICombat
	c.CombatStartedAt = now
	c.LastProgressAt = now
	AddThreat(c, targetGUID, 1)

	tmpl := c.Template
	if tmpl == nil || tmpl.SocialAggroRange <= 0 {
		return
	}
	for _, guid := range z.Grid.EntitiesInRange(c.Pos, tmpl.SocialAggroRange) {
		ally := z.Creatures[guid]
		if ally == nil || ally == c || ally.AIState != world.AIIdle {
			continue
		}
		if ally.Faction != c.Faction {
			continue
		}
		ally.AIState = world.AICombat
		ally.CombatStartedAt = now
		ally.LastProgressAt = now
		AddThreat(ally, targetGUID, 1)
	}
}

// tickCombat checks, in order: combat timeout, leash, target validity, then
// swings on cadence.
func tickCombat(z *world.ZoneInstance, c *world.Entity, now time.Time) {
	tmpl := c.Template

	if now.Sub(c.LastProgressAt) >= z.Cfg.CombatTimeout {
		startEvade(z, c)
		return
	}
	if tmpl != nil && tmpl.LeashRange > 0 {
		if c.Pos.DistSq(c.SpawnPos) > tmpl.LeashRange*tmpl.LeashRange {
			startEvade(z, c)
			return
		}
	}

	target := z.Entities[c.TargetGUID]
	if target == nil || !target.Alive() {
		// Fall back to the next-highest threat entry; evade when none left.
		c.TargetGUID = MaxThreatTarget(z, c)
		if c.TargetGUID == 0 {
			startEvade(z, c)
			return
		}
		target = z.Entities[c.TargetGUID]
	}

	if tmpl == nil || tmpl.AttackSpeedMs <= 0 {
		return
	}
	cadence := time.Duration(tmpl.AttackSpeedMs) * time.Millisecond
	if now.Sub(c.LastAttackAt) < cadence {
		return
	}
	c.LastAttackAt = now
	c.LastProgressAt = now

	dealt, absorbed := ApplyDamage(z, c.GUID, target, tmpl.AttackDamage, now)
	z.BroadcastNear(c.Pos, BuildSpellGo(c.GUID, target.GUID, 0, dealt, 0, absorbed))
}

// startEvade abandons combat and begins the walk back to spawn. Effects are
// cleared at the transition so a retreating creature cannot be worn down by
// lingering debuffs.
func startEvade(z *world.ZoneInstance, c *world.Entity) {
	c.AIState = world.AIEvade
	ClearThreat(c)
	c.ClearEffects()
}

// tickEvade steps toward spawn; on arrival the creature resets to full
// health and idles.
func tickEvade(z *world.ZoneInstance, c *world.Entity) {
	delta := c.SpawnPos.Sub(c.Pos)
	d2 := c.Pos.DistSq(c.SpawnPos)

	step := z.Cfg.EvadeStep
	if d2 <= step*step {
		z.UpdatePosition(c.GUID, c.SpawnPos, c.Rot, world.Vec3{})
	} else {
		scale := step / sqrt32(d2)
		z.UpdatePosition(c.GUID, c.Pos.Add(delta.Scale(scale)), c.Rot, world.Vec3{})
	}

	if c.Pos.DistSq(c.SpawnPos) < evadeArrival*evadeArrival {
		c.AIState = world.AIIdle
		c.Health = c.MaxHealth
	}
	z.BroadcastNear(c.Pos, BuildMovement(c, 0, uint32(z.Now().UnixMilli())))
}

// sqrt32 is only used on the evade path, never in range queries.
func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
