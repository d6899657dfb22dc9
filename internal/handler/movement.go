package handler

import (
	"math"
	"time"

	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
)

// HandleMovement applies a client position update with a speed-cap sanity
// check. An impossible displacement is clamped onto the allowed radius, not
// punished; latency spikes look the same as cheating from here.
func HandleMovement(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := readVec(r)
	rot := readVec(r)
	vel := readVec(r)
	flags := r.ReadD()
	timestamp := r.ReadD()
	if r.Overrun() {
		sess.Close()
		return
	}

	z := zoneFor(sess, deps)
	if z == nil {
		return
	}
	guid := sess.Identity().EntityGUID
	tolerance := deps.Config.World.SpeedTolerance

	z.Post(func(z *world.ZoneInstance) {
		e := z.Entities[guid]
		if e == nil || !e.IsPlayer() {
			return
		}

		now := z.Now()
		accepted := clampDisplacement(e, pos, now, tolerance)
		e.LastMoveAt = now
		z.UpdatePosition(guid, accepted, rot, vel)

		pkt := system.BuildMovement(e, flags, timestamp)
		z.PostDroppable(func(z *world.ZoneInstance) {
			z.BroadcastNearExcept(e.Pos, guid, pkt)
		})
	})
}

// clampDisplacement bounds one packet's movement by speed × elapsed ×
// tolerance. The first update after spawn is taken as-is.
func clampDisplacement(e *world.Entity, want world.Vec3, now time.Time, tolerance float32) world.Vec3 {
	if e.LastMoveAt.IsZero() || e.Speed <= 0 {
		return want
	}
	elapsed := float32(now.Sub(e.LastMoveAt).Seconds())
	if elapsed <= 0 {
		elapsed = 0.01
	}
	maxDist := e.Speed * elapsed * tolerance
	delta := want.Sub(e.Pos)
	d2 := e.Pos.DistSq(want)
	if d2 <= maxDist*maxDist {
		return want
	}
	scale := maxDist / sqrtf(d2)
	return e.Pos.Add(delta.Scale(scale))
}

func readVec(r *packet.Reader) world.Vec3 {
	return world.Vec3{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF()}
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
