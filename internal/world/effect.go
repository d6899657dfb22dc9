package world

import (
	"time"

	"github.com/wsgo/server/internal/data"
)

// ActiveEffect is a live buff or debuff on one entity. EffectID is unique
// per holder; re-applying the same id replaces the effect (refresh).
type ActiveEffect struct {
	EffectID   uint32
	SpellID    uint32
	Kind       data.EffectKind
	Stat       uint32 // stat tag for stat_mod
	Amount     int32
	IsDebuff   bool
	Stacks     int32
	MaxStacks  int32
	CasterGUID uint64
	AppliedAt  time.Time
	ExpiresAt  time.Time

	TickInterval time.Duration // periodic only
	NextTickAt   time.Time
	Heals        bool // periodic pulse heals instead of damaging

	seq uint64 // insertion order within the holder
}

// ApplyEffect installs the effect on the entity. An effect with an id
// already present is replaced in place; its pending expiry dies with it
// because expiry is checked against the stored effect, not a timer handle.
// Returns true when an existing effect was refreshed.
func (e *Entity) ApplyEffect(eff *ActiveEffect) bool {
	if e.Effects == nil {
		e.Effects = make(map[uint32]*ActiveEffect)
	}
	_, refreshed := e.Effects[eff.EffectID]
	e.effectSeq++
	eff.seq = e.effectSeq
	if eff.Stacks < 1 {
		eff.Stacks = 1
	}
	e.Effects[eff.EffectID] = eff
	return refreshed
}

// RemoveEffect deletes and returns the effect, or nil if absent.
func (e *Entity) RemoveEffect(effectID uint32) *ActiveEffect {
	eff := e.Effects[effectID]
	if eff != nil {
		delete(e.Effects, effectID)
	}
	return eff
}

// ClearEffects drops every active effect. Used on death and on evade; the
// caller broadcasts a single despawn or reset, not per-effect removals.
func (e *Entity) ClearEffects() {
	e.Effects = nil
	e.effectSeq = 0
}

// ExpiredEffects returns the ids of effects whose expiry has passed, in
// insertion order so removal packets come out deterministically.
func (e *Entity) ExpiredEffects(now time.Time) []uint32 {
	if len(e.Effects) == 0 {
		return nil
	}
	var out []*ActiveEffect
	for _, eff := range e.Effects {
		if !now.Before(eff.ExpiresAt) {
			out = append(out, eff)
		}
	}
	sortEffectsBySeq(out)
	ids := make([]uint32, len(out))
	for i, eff := range out {
		ids[i] = eff.EffectID
	}
	return ids
}

// StatModSum sums live stat_mod amounts for one stat tag.
func (e *Entity) StatModSum(stat uint32, now time.Time) int32 {
	var sum int32
	for _, eff := range e.Effects {
		if eff.Kind != data.EffectStatMod || eff.Stat != stat {
			continue
		}
		if !now.Before(eff.ExpiresAt) {
			continue
		}
		sum += eff.Amount * eff.Stacks
	}
	return sum
}

// AbsorbDamage routes damage through absorb shields oldest-first. Each
// shield is consumed up to its remaining amount; shields consumed to zero
// are removed. Returns the damage left over, the total absorbed, and the
// ids of depleted shields (for BuffRemove with reason cancelled).
func (e *Entity) AbsorbDamage(damage int32, now time.Time) (remaining int32, absorbed int32, depleted []uint32) {
	if damage <= 0 || len(e.Effects) == 0 {
		return damage, 0, nil
	}
	var shields []*ActiveEffect
	for _, eff := range e.Effects {
		if eff.Kind == data.EffectAbsorb && now.Before(eff.ExpiresAt) && eff.Amount > 0 {
			shields = append(shields, eff)
		}
	}
	sortEffectsBySeq(shields)

	remaining = damage
	for _, sh := range shields {
		if remaining <= 0 {
			break
		}
		take := sh.Amount
		if take > remaining {
			take = remaining
		}
		sh.Amount -= take
		remaining -= take
		absorbed += take
		if sh.Amount == 0 {
			delete(e.Effects, sh.EffectID)
			depleted = append(depleted, sh.EffectID)
		}
	}
	return remaining, absorbed, depleted
}

// sortEffectsBySeq orders by insertion sequence. Small n, insertion sort.
func sortEffectsBySeq(effs []*ActiveEffect) {
	for i := 1; i < len(effs); i++ {
		for j := i; j > 0 && effs[j].seq < effs[j-1].seq; j-- {
			effs[j], effs[j-1] = effs[j-1], effs[j]
		}
	}
}
