package handler

import (
	"github.com/wsgo/server/internal/auth"
	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/persist"
	"github.com/wsgo/server/internal/scripting"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo
	CharRepo    *persist.CharacterRepo
	SaveQueue   *persist.SaveQueue
	Sessions    *auth.SessionStore
	Config      *config.Config
	Log         *zap.Logger
	Directory   *world.Directory
	Zones       *world.Supervisor
	Static      *data.Store
	Scripting   *scripting.Engine
	Registry    *packet.Registry // envelope redispatch
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	deps.Registry = reg

	// The encrypted envelope is legal in every live state; its handler
	// enforces that a key is actually installed.
	reg.Register(packet.OPCODE_ENCRYPTED,
		[]packet.SessionState{
			packet.StateHandshake, packet.StateAuthChallenged, packet.StateAuthDone,
			packet.StateCharacterSelect, packet.StateLoading, packet.StateInWorld,
		},
		func(sess any, r *packet.Reader) {
			HandleEnvelope(sess.(*net.Session), r, deps)
		},
	)

	// Handshake phase: both realms greet on a fresh connection.
	reg.Register(packet.C_OPCODE_HELLO_AUTH,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHelloAuth(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PROOF,
		[]packet.SessionState{packet.StateAuthChallenged},
		func(sess any, r *packet.Reader) {
			HandleProof(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_HELLO_WORLD,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHelloWorld(sess.(*net.Session), r, deps)
		},
	)

	// Character select phase
	selectStates := []packet.SessionState{packet.StateCharacterSelect}

	reg.Register(packet.C_OPCODE_CHARACTER_LIST, selectStates,
		func(sess any, r *packet.Reader) {
			HandleCharacterList(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHARACTER_CREATE, selectStates,
		func(sess any, r *packet.Reader) {
			HandleCharacterCreate(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHARACTER_DELETE, selectStates,
		func(sess any, r *packet.Reader) {
			HandleCharacterDelete(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHARACTER_SELECT, selectStates,
		func(sess any, r *packet.Reader) {
			HandleCharacterSelect(sess.(*net.Session), r, deps)
		},
	)

	// Loading phase
	reg.Register(packet.C_OPCODE_ENTERED_WORLD,
		[]packet.SessionState{packet.StateLoading},
		func(sess any, r *packet.Reader) {
			HandleEnteredWorld(sess.(*net.Session), r, deps)
		},
	)

	// In-world phase
	inWorld := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_MOVEMENT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleMovement(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CAST_SPELL, inWorld,
		func(sess any, r *packet.Reader) {
			HandleCastSpell(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CANCEL_CAST, inWorld,
		func(sess any, r *packet.Reader) {
			HandleCancelCast(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SET_TARGET, inWorld,
		func(sess any, r *packet.Reader) {
			HandleSetTarget(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_NPC_INTERACT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleNpcInteract(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(*net.Session), r, deps)
		},
	)

	// Keep-alive is harmless anywhere past auth.
	reg.Register(packet.C_OPCODE_KEEP_ALIVE,
		[]packet.SessionState{
			packet.StateAuthDone, packet.StateCharacterSelect,
			packet.StateLoading, packet.StateInWorld,
		},
		func(sess any, r *packet.Reader) {
			HandleKeepAlive(sess.(*net.Session), r, deps)
		},
	)
}

// zoneFor resolves the session's bound zone instance. nil when the session
// is not (or no longer) in a zone.
func zoneFor(sess *net.Session, deps *Deps) *world.ZoneInstance {
	ident := sess.Identity()
	z, ok := deps.Zones.Get(ident.WorldID, ident.InstanceID)
	if !ok {
		return nil
	}
	return z
}
