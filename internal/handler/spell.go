package handler

import (
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// HandleCastSpell starts a cast on the session's zone. Validation failures
// drop the packet; the client may be racing a death or a despawn.
func HandleCastSpell(sess *net.Session, r *packet.Reader, deps *Deps) {
	spellID := r.ReadD()
	targetGUID := r.ReadQ()
	if r.Overrun() {
		sess.Close()
		return
	}

	z := zoneFor(sess, deps)
	if z == nil {
		return
	}
	guid := sess.Identity().EntityGUID
	log := deps.Log

	z.Post(func(z *world.ZoneInstance) {
		caster := z.Entities[guid]
		if caster == nil {
			return
		}
		tgt := targetGUID
		if tgt == 0 {
			tgt = caster.TargetGUID
		}
		result := system.CastSpell(z, caster, tgt, spellID, z.Now())
		if result != system.CastOK {
			log.Warn("施法被拒",
				zap.Uint64("caster", guid),
				zap.Uint32("spell", spellID),
				zap.Uint8("result", uint8(result)),
			)
		}
	})
}

// HandleCancelCast aborts the pending cast, keeping the spent resource.
func HandleCancelCast(sess *net.Session, r *packet.Reader, deps *Deps) {
	z := zoneFor(sess, deps)
	if z == nil {
		return
	}
	guid := sess.Identity().EntityGUID
	z.Post(func(z *world.ZoneInstance) {
		if caster := z.Entities[guid]; caster != nil {
			system.CancelCast(caster)
		}
	})
}

// HandleSetTarget records the player's current target for implicit casts.
func HandleSetTarget(sess *net.Session, r *packet.Reader, deps *Deps) {
	targetGUID := r.ReadQ()
	if r.Overrun() {
		sess.Close()
		return
	}

	z := zoneFor(sess, deps)
	if z == nil {
		return
	}
	guid := sess.Identity().EntityGUID
	z.Post(func(z *world.ZoneInstance) {
		if e := z.Entities[guid]; e != nil {
			e.TargetGUID = targetGUID
		}
	})
}
