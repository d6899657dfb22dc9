package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

func TestAggroWithinRange(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})

	now := time.Unix(1000, 0)
	TickAI(z, now)

	assert.Equal(t, world.AICombat, c.AIState)
	assert.Equal(t, p.GUID, c.TargetGUID)
	assert.Equal(t, int64(1), c.Threat[p.GUID])
}

func TestNoAggroOutOfRange(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	addPlayer(z, world.Vec3{X: 50})

	TickAI(z, time.Unix(1000, 0))
	assert.Equal(t, world.AIIdle, c.AIState)
}

func TestPassiveNeverAggros(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 5, world.Vec3{})
	addPlayer(z, world.Vec3{X: 2})

	TickAI(z, time.Unix(1000, 0))
	assert.Equal(t, world.AIIdle, c.AIState)
}

func TestNoAggroOnFriendlyFaction(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 5})
	p.Faction = world.FactionNeutral

	TickAI(z, time.Unix(1000, 0))
	assert.Equal(t, world.AIIdle, c.AIState)
}

func TestNearestPlayerWins(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	addPlayer(z, world.Vec3{X: 12})
	near := addPlayer(z, world.Vec3{X: 6})

	TickAI(z, time.Unix(1000, 0))
	assert.Equal(t, near.GUID, c.TargetGUID)
}

func TestInCombatTargetStaysPut(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p1 := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p1.GUID, now)
	require.Equal(t, world.AICombat, c.AIState)

	// A closer player appearing mid-fight does not steal the target.
	addPlayer(z, world.Vec3{X: 2})
	TickAI(z, now.Add(time.Second))
	assert.Equal(t, p1.GUID, c.TargetGUID)
}

func TestThreatSwitchesTarget(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p1 := addPlayer(z, world.Vec3{X: 10})
	p2 := addPlayer(z, world.Vec3{X: 12})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p1.GUID, now)
	ApplyDamage(z, p2.GUID, c, 50, now)
	assert.Equal(t, p2.GUID, c.TargetGUID)
}

func TestSocialAggroPullsNearbyAllies(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c1 := addCreature(z, 2, world.Vec3{})
	c2 := addCreature(z, 2, world.Vec3{X: -5})  // inside c1's social range
	c3 := addCreature(z, 2, world.Vec3{X: -20}) // outside, and too far from the player
	p := addPlayer(z, world.Vec3{X: 14})

	TickAI(z, time.Unix(1000, 0))

	assert.Equal(t, world.AICombat, c1.AIState)
	assert.Equal(t, world.AICombat, c2.AIState)
	assert.Equal(t, p.GUID, c2.TargetGUID)

	// The pull does not chain through c2.
	assert.Equal(t, world.AIIdle, c3.AIState)
}

func TestAttackCadence(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 5})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p.GUID, now)

	TickAI(z, now)
	assert.Equal(t, int32(92), p.Health)

	// attack_speed_ms 2000: the swing one second later is withheld.
	TickAI(z, now.Add(time.Second))
	assert.Equal(t, int32(92), p.Health)

	TickAI(z, now.Add(2*time.Second))
	assert.Equal(t, int32(84), p.Health)
}

func TestLeashTriggersEvade(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p.GUID, now)
	c.ApplyEffect(&world.ActiveEffect{EffectID: 1, Amount: 1, ExpiresAt: now.Add(time.Minute)})

	// Dragged one unit past leash_range 40.
	z.UpdatePosition(c.GUID, world.Vec3{X: 41}, c.Rot, world.Vec3{})
	c.Health = 30

	TickAI(z, now.Add(time.Second))
	assert.Equal(t, world.AIEvade, c.AIState)
	assert.Empty(t, c.Threat)
	assert.Zero(t, c.TargetGUID)
	assert.Empty(t, c.Effects)
}

func TestEvadeWalksHomeAndResets(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p.GUID, now)
	z.UpdatePosition(c.GUID, world.Vec3{X: 41}, c.Rot, world.Vec3{})
	c.Health = 30
	TickAI(z, now.Add(time.Second))
	require.Equal(t, world.AIEvade, c.AIState)

	// 5 units per tick from 41 out: home and idle again within 12 ticks.
	for i := 0; i < 12 && c.AIState == world.AIEvade; i++ {
		TickAI(z, now.Add(time.Duration(2+i)*time.Second))
	}
	assert.Equal(t, world.AIIdle, c.AIState)
	assert.Equal(t, c.SpawnPos, c.Pos)
	assert.Equal(t, c.MaxHealth, c.Health)
}

func TestCombatTimeoutEvades(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p.GUID, now)
	c.LastAttackAt = now.Add(time.Hour) // silence swings for this test

	TickAI(z, now.Add(29*time.Second))
	assert.Equal(t, world.AICombat, c.AIState)

	TickAI(z, now.Add(31*time.Second))
	assert.Equal(t, world.AIEvade, c.AIState)
}

func TestDeadTargetFallsBackToThreatList(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p1 := addPlayer(z, world.Vec3{X: 5})
	p2 := addPlayer(z, world.Vec3{X: 6})
	now := time.Unix(1000, 0)

	EnterCombat(z, c, p1.GUID, now)
	AddThreat(c, p2.GUID, 1)
	c.TargetGUID = p1.GUID

	// p1 logs out; the creature retargets p2 instead of evading.
	z.RemoveEntity(p1.GUID)
	TickAI(z, now.Add(time.Second))
	assert.Equal(t, world.AICombat, c.AIState)
	assert.Equal(t, p2.GUID, c.TargetGUID)

	z.RemoveEntity(p2.GUID)
	TickAI(z, now.Add(2*time.Second))
	assert.Equal(t, world.AIEvade, c.AIState)
}
