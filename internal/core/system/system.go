package system

import (
	"time"

	"github.com/wsgo/server/internal/world"
)

// Phase defines execution ordering within a single zone tick.
type Phase int

const (
	PhaseUpdate  Phase = iota // 0: AI and combat
	PhaseEffects              // 1: buff expiry + periodic pulses
	PhaseCleanup              // 2: deferred removals
)

// System is one stage of the per-zone tick pipeline. Update always runs on
// the zone's actor goroutine.
type System interface {
	Phase() Phase
	Update(z *world.ZoneInstance, now time.Time)
}
