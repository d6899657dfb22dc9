package system

import (
	"time"

	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/world"
)

// TickEffects expires finished effects and fires periodic pulses. Runs each
// zone tick after AI. Entities are snapshotted first because a periodic
// pulse can kill its holder and mutate the entity table mid-walk.
func TickEffects(z *world.ZoneInstance, now time.Time) {
	var holders []*world.Entity
	for _, e := range z.Entities {
		if len(e.Effects) > 0 {
			holders = append(holders, e)
		}
	}

	for _, e := range holders {
		for _, effID := range e.ExpiredEffects(now) {
			e.RemoveEffect(effID)
			z.BroadcastNear(e.Pos, BuildBuffRemove(e.GUID, effID, packet.BuffRemoveExpired))
		}
		if !e.Alive() {
			continue
		}
		tickPeriodic(z, e, now)
	}
}

func tickPeriodic(z *world.ZoneInstance, e *world.Entity, now time.Time) {
	for _, eff := range e.Effects {
		if eff.Kind != data.EffectPeriodic || eff.TickInterval <= 0 {
			continue
		}
		for !now.Before(eff.NextTickAt) && now.Before(eff.ExpiresAt) {
			eff.NextTickAt = eff.NextTickAt.Add(eff.TickInterval)
			if eff.Heals {
				ApplyHeal(z, eff.CasterGUID, e, eff.Amount, now)
			} else {
				ApplyDamage(z, eff.CasterGUID, e, eff.Amount, now)
			}
			if !e.Alive() {
				return
			}
		}
	}
}
