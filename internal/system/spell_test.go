package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

func TestCastValidation(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{X: 10})
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	assert.Equal(t, CastUnknownSpell, CastSpell(z, p, c.GUID, 9999, now))

	far := addCreature(z, 2, world.Vec3{X: 60})
	assert.Equal(t, CastOutOfRange, CastSpell(z, p, far.GUID, 100, now))

	p.Resource = 5
	assert.Equal(t, CastNoResource, CastSpell(z, p, c.GUID, 100, now))
	p.Resource = 100

	c.Health = 0
	assert.Equal(t, CastBadTarget, CastSpell(z, p, c.GUID, 100, now))
	c.Health = 100

	p.Health = 0
	assert.Equal(t, CastDead, CastSpell(z, p, c.GUID, 100, now))
}

func TestInstantDamageCast(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	require.Equal(t, CastOK, CastSpell(z, p, c.GUID, 100, now))
	assert.Equal(t, int32(78), c.Health)
	assert.Equal(t, int32(90), p.Resource)
	assert.Equal(t, world.AICombat, c.AIState)
	assert.Equal(t, p.GUID, c.TargetGUID)

	// Keep shooting: the creature dies and despawns within six casts total.
	casts := 1
	for ; casts < 6; casts++ {
		if z.Entities[c.GUID] == nil {
			break
		}
		require.Equal(t, CastOK, CastSpell(z, p, c.GUID, 100, now))
	}
	assert.NotContains(t, z.Entities, c.GUID)
	assert.LessOrEqual(t, casts, 6)
}

func TestSelfCastWhenNoTarget(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	p.Health = 50
	require.Equal(t, CastOK, CastSpell(z, p, 0, 200, now))
	assert.Equal(t, int32(90), p.Health)
}

func TestShieldRecastRefreshes(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{X: 10})
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	require.Equal(t, CastOK, CastSpell(z, p, 0, 300, now))
	require.Len(t, p.Effects, 1)

	ApplyDamage(z, c.GUID, p, 30, now)
	effID := effectIDFor(300, 0)
	require.Equal(t, int32(70), p.Effects[effID].Amount)

	// Recasting replaces the worn shield instead of stacking a second one.
	require.Equal(t, CastOK, CastSpell(z, p, 0, 300, now.Add(time.Second)))
	assert.Len(t, p.Effects, 1)
	assert.Equal(t, int32(100), p.Effects[effID].Amount)
}

func TestStatModExpires(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	require.Equal(t, CastOK, CastSpell(z, p, 0, 400, now))
	assert.Equal(t, int32(7), p.EffectiveStat(5, 1, now))

	// duration_ms 8000: gone on the tick after expiry.
	later := now.Add(9 * time.Second)
	assert.Equal(t, int32(5), p.EffectiveStat(5, 1, later))
	TickEffects(z, later)
	assert.Empty(t, p.Effects)
}

func TestPeriodicDamageTicks(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	c := addCreature(z, 2, world.Vec3{})
	p := addPlayer(z, world.Vec3{X: 10})
	now := time.Unix(1000, 0)

	require.Equal(t, CastOK, CastSpell(z, p, c.GUID, 500, now))
	assert.Equal(t, int32(100), c.Health)

	TickEffects(z, now.Add(3*time.Second))
	assert.Equal(t, int32(94), c.Health)
	assert.Equal(t, world.AICombat, c.AIState)

	TickEffects(z, now.Add(6*time.Second))
	assert.Equal(t, int32(88), c.Health)

	// duration_ms 9000: the expiry tick removes the effect without a pulse.
	TickEffects(z, now.Add(9*time.Second))
	assert.Equal(t, int32(88), c.Health)
	assert.Empty(t, c.Effects)
}

func TestPeriodicHealTicks(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	p.Health = 50
	require.Equal(t, CastOK, CastSpell(z, p, 0, 600, now))

	TickEffects(z, now.Add(2*time.Second))
	assert.Equal(t, int32(62), p.Health)
	TickEffects(z, now.Add(4*time.Second))
	assert.Equal(t, int32(74), p.Health)
}

func TestMissedPeriodicPulsesCatchUp(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	p := addPlayer(z, world.Vec3{})
	now := time.Unix(1000, 0)

	p.Health = 10
	require.Equal(t, CastOK, CastSpell(z, p, 0, 600, now))

	// A late tick delivers every pulse due so far.
	TickEffects(z, now.Add(6*time.Second))
	assert.Equal(t, int32(46), p.Health)
}

func TestTimedCastCompletes(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	go z.Run()
	defer z.Stop()

	setup := make(chan [2]uint64, 1)
	z.Post(func(z *world.ZoneInstance) {
		c := addCreature(z, 2, world.Vec3{})
		p := addPlayer(z, world.Vec3{X: 10})
		require.Equal(t, CastOK, CastSpell(z, p, c.GUID, 700, z.Now()))
		assert.Equal(t, uint32(700), p.CastingSpellID)
		setup <- [2]uint64{c.GUID, p.GUID}
	})
	guids := <-setup

	require.Eventually(t, func() bool {
		got := make(chan int32, 1)
		z.Post(func(z *world.ZoneInstance) {
			got <- z.Entities[guids[0]].Health
		})
		return <-got == 50
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelCastAbortsWithoutRefund(t *testing.T) {
	z := newTestZone(t, zap.NewNop())
	go z.Run()
	defer z.Stop()

	setup := make(chan [2]uint64, 1)
	z.Post(func(z *world.ZoneInstance) {
		c := addCreature(z, 2, world.Vec3{})
		p := addPlayer(z, world.Vec3{X: 10})
		require.Equal(t, CastOK, CastSpell(z, p, c.GUID, 700, z.Now()))
		CancelCast(p)
		assert.Zero(t, p.CastingSpellID)
		setup <- [2]uint64{c.GUID, p.GUID}
	})
	guids := <-setup

	time.Sleep(300 * time.Millisecond)

	got := make(chan [2]int32, 1)
	z.Post(func(z *world.ZoneInstance) {
		got <- [2]int32{z.Entities[guids[0]].Health, z.Entities[guids[1]].Resource}
	})
	result := <-got
	assert.Equal(t, int32(100), result[0]) // damage never landed
	assert.Equal(t, int32(90), result[1])  // the resource stays spent
}
