package world

import (
	"time"

	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/net"
)

// Vec3 is a position or direction in game units.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// DistSq returns squared distance. Range checks compare against radius²
// so sqrt never enters the hot path.
func (v Vec3) DistSq(o Vec3) float32 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// AIState 生物 AI 狀態機。dead 在單次生命內為終態，
// 重生會以新 GUID 建立新實體。
type AIState uint8

const (
	AIIdle AIState = iota
	AICombat
	AIEvade
	AIDead
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "idle"
	case AICombat:
		return "combat"
	case AIEvade:
		return "evade"
	case AIDead:
		return "dead"
	}
	return "unknown"
}

// Entity is anything occupying space in a zone. Creatures and players share
// the struct; creature-only fields stay zero for players. Owned exclusively
// by one zone actor, no locks.
type Entity struct {
	GUID      uint64
	Kind      Kind
	Name      string
	Pos       Vec3
	Rot       Vec3
	Velocity  Vec3
	Faction   Faction
	Level     int32
	Health    int32
	MaxHealth int32
	Speed     float32 // movement cap, units per second

	Resource    int32 // spell cost pool
	MaxResource int32

	// Cast bar. CastSeq invalidates a scheduled completion when the cast
	// is cancelled or replaced.
	CastingSpellID uint32
	CastSeq        uint32

	// Players only.
	Sess        *net.Session
	LastMoveAt  time.Time
	CharacterID uint64
	XP          int64
	Currency    int64

	// Creatures only.
	Template        *data.CreatureTemplate
	SpawnPos        Vec3
	AIState         AIState
	Threat          map[uint64]int64
	TargetGUID      uint64
	CombatStartedAt time.Time
	LastProgressAt  time.Time // last successful damage or heal while in combat
	LastAttackAt    time.Time

	// Active effects indexed by per-holder effect id. effectSeq orders
	// absorbs for oldest-first consumption.
	Effects   map[uint32]*ActiveEffect
	effectSeq uint64
}

// IsPlayer reports whether the entity is a connected character.
func (e *Entity) IsPlayer() bool {
	return e.Kind == KindPlayer
}

// Alive reports whether the entity can act or be targeted.
func (e *Entity) Alive() bool {
	return e.Health > 0 && e.AIStateOrIdle() != AIDead
}

// AIStateOrIdle treats players as permanently idle for AI checks.
func (e *Entity) AIStateOrIdle() AIState {
	if e.IsPlayer() {
		return AIIdle
	}
	return e.AIState
}

// EffectiveStat returns base plus the sum of live stat_mod amounts for the
// given stat tag.
func (e *Entity) EffectiveStat(base int32, stat uint32, now time.Time) int32 {
	return base + e.StatModSum(stat, now)
}
