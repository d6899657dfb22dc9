package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wsgo/server/internal/world"
)

func TestClampDisplacementFirstUpdatePasses(t *testing.T) {
	e := &world.Entity{Kind: world.KindPlayer, Speed: 7}
	want := world.Vec3{X: 500, Y: 500, Z: 500}
	got := clampDisplacement(e, want, time.Unix(1000, 0), 1.1)
	assert.Equal(t, want, got)
}

func TestClampDisplacementWithinBudget(t *testing.T) {
	now := time.Unix(1000, 0)
	e := &world.Entity{Kind: world.KindPlayer, Speed: 7, LastMoveAt: now}

	// 7 u/s over one second with 1.1 tolerance allows 7.7 units.
	want := world.Vec3{X: 7}
	got := clampDisplacement(e, want, now.Add(time.Second), 1.1)
	assert.Equal(t, want, got)
}

func TestClampDisplacementCapsTeleport(t *testing.T) {
	now := time.Unix(1000, 0)
	e := &world.Entity{Kind: world.KindPlayer, Speed: 7, LastMoveAt: now}

	got := clampDisplacement(e, world.Vec3{X: 100}, now.Add(time.Second), 1.1)
	assert.InDelta(t, 7.7, got.X, 0.001)
	assert.Zero(t, got.Y)
	assert.Zero(t, got.Z)
}

func TestClampDisplacementDiagonal(t *testing.T) {
	now := time.Unix(1000, 0)
	e := &world.Entity{
		Kind:       world.KindPlayer,
		Speed:      7,
		Pos:        world.Vec3{X: 10, Z: 10},
		LastMoveAt: now,
	}

	got := clampDisplacement(e, world.Vec3{X: 40, Z: 50}, now.Add(time.Second), 1.1)

	// The clamp lands on the allowed radius along the requested direction.
	d := got.Sub(e.Pos)
	assert.InDelta(t, 7.7, sqrtf(d.X*d.X+d.Y*d.Y+d.Z*d.Z), 0.001)
	assert.InDelta(t, d.Z/d.X, float32(40.0/30.0), 0.001)
}
