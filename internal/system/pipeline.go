package system

import (
	"time"

	core "github.com/wsgo/server/internal/core/system"
	"github.com/wsgo/server/internal/world"
)

// AISystem drives the creature state machine.
type AISystem struct{}

func (AISystem) Phase() core.Phase { return core.PhaseUpdate }

func (AISystem) Update(z *world.ZoneInstance, now time.Time) {
	TickAI(z, now)
}

// EffectSystem expires buffs and fires periodic pulses.
type EffectSystem struct{}

func (EffectSystem) Phase() core.Phase { return core.PhaseEffects }

func (EffectSystem) Update(z *world.ZoneInstance, now time.Time) {
	TickEffects(z, now)
}

// NewPipeline builds the standard tick pipeline, installed on every zone by
// the supervisor.
func NewPipeline() func(z *world.ZoneInstance, now time.Time) {
	r := core.NewRunner()
	r.Register(AISystem{})
	r.Register(EffectSystem{})
	return r.Tick
}
