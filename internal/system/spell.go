package system

import (
	"time"

	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// CastResult is what the cast pipeline reports back to the handler layer.
type CastResult uint8

const (
	CastOK CastResult = iota
	CastUnknownSpell
	CastBadTarget
	CastOutOfRange
	CastNoResource
	CastDead
)

// effectIDFor derives the per-holder effect id from the spell identity, so
// recasting the same spell refreshes its effects instead of stacking new
// copies beside them.
func effectIDFor(spellID uint32, idx int) uint32 {
	return spellID<<4 | uint32(idx&0xF)
}

// CastSpell validates and starts a cast. Instant spells resolve inline;
// timed casts schedule completion on the zone actor, guarded by the caster's
// cast sequence so cancellation and death invalidate them.
func CastSpell(z *world.ZoneInstance, caster *world.Entity, targetGUID uint64, spellID uint32, now time.Time) CastResult {
	if !caster.Alive() {
		return CastDead
	}
	spell := z.Static.Spells.Get(spellID)
	if spell == nil {
		return CastUnknownSpell
	}

	if targetGUID == 0 || spell.Range == 0 {
		targetGUID = caster.GUID
	}
	target := z.Entities[targetGUID]
	if target == nil || !target.Alive() {
		return CastBadTarget
	}
	if spell.Range > 0 && caster.Pos.DistSq(target.Pos) > spell.Range*spell.Range {
		return CastOutOfRange
	}
	if caster.Resource < spell.Cost {
		return CastNoResource
	}
	caster.Resource -= spell.Cost

	if spell.CastTimeMs <= 0 {
		resolveSpell(z, caster, target, spell, now)
		return CastOK
	}

	caster.CastSeq++
	caster.CastingSpellID = spellID
	seq := caster.CastSeq
	casterGUID := caster.GUID
	z.ScheduleAfter(time.Duration(spell.CastTimeMs)*time.Millisecond, func(z *world.ZoneInstance) {
		c := z.Entities[casterGUID]
		if c == nil || c.CastSeq != seq || !c.Alive() {
			return
		}
		c.CastingSpellID = 0
		t := z.Entities[targetGUID]
		if t == nil || !t.Alive() {
			return
		}
		resolveSpell(z, c, t, spell, z.Now())
	})
	return CastOK
}

// CancelCast aborts a pending cast. The spent resource is not refunded.
func CancelCast(caster *world.Entity) {
	caster.CastSeq++
	caster.CastingSpellID = 0
}

// resolveSpell applies the spell's effects in declared order and broadcasts
// the outcome.
func resolveSpell(z *world.ZoneInstance, caster, target *world.Entity, spell *data.Spell, now time.Time) {
	var totalDamage, totalHealed, totalAbsorbed int32

	for idx, se := range spell.Effects {
		switch se.Kind {
		case data.EffectDamage:
			dealt, absorbed := ApplyDamage(z, caster.GUID, target, se.Amount, now)
			totalDamage += dealt
			totalAbsorbed += absorbed

		case data.EffectHeal:
			totalHealed += ApplyHeal(z, caster.GUID, target, se.Amount, now)

		case data.EffectAbsorb, data.EffectStatMod, data.EffectPeriodic:
			if !target.Alive() {
				continue
			}
			dur := time.Duration(se.DurationMs) * time.Millisecond
			eff := &world.ActiveEffect{
				EffectID:   effectIDFor(spell.SpellID, idx),
				SpellID:    spell.SpellID,
				Kind:       se.Kind,
				Stat:       se.Stat,
				Amount:     se.Amount,
				IsDebuff:   se.IsDebuff,
				MaxStacks:  se.MaxStacks,
				CasterGUID: caster.GUID,
				AppliedAt:  now,
				ExpiresAt:  now.Add(dur),
			}
			if se.Kind == data.EffectPeriodic {
				eff.TickInterval = time.Duration(se.TickIntervalMs) * time.Millisecond
				eff.NextTickAt = now.Add(eff.TickInterval)
				eff.Heals = se.PeriodicHeals
			}
			refreshed := target.ApplyEffect(eff)
			if refreshed {
				z.Log.Debug("效果刷新",
					zap.Uint64("target", target.GUID),
					zap.Uint32("effect", eff.EffectID),
				)
			}
			z.BroadcastNear(target.Pos, BuildBuffApply(target.GUID, eff, uint32(se.DurationMs)))
		}
	}

	z.BroadcastNear(caster.Pos, BuildSpellGo(caster.GUID, target.GUID, spell.SpellID, totalDamage, totalHealed, totalAbsorbed))
}
