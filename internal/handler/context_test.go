package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsgo/server/internal/net/packet"
	"go.uber.org/zap"
)

// Every client-originated opcode must have a registered handler; a miss here
// means a connected client can send a legal packet that closes its session.
func TestRegisterAllCoversClientOpcodes(t *testing.T) {
	reg := packet.NewRegistry(zap.NewNop())
	RegisterAll(reg, &Deps{Log: zap.NewNop()})

	opcodes := map[string]uint16{
		"encrypted envelope": packet.OPCODE_ENCRYPTED,
		"hello auth":         packet.C_OPCODE_HELLO_AUTH,
		"proof":              packet.C_OPCODE_PROOF,
		"hello world":        packet.C_OPCODE_HELLO_WORLD,
		"character list":     packet.C_OPCODE_CHARACTER_LIST,
		"character create":   packet.C_OPCODE_CHARACTER_CREATE,
		"character delete":   packet.C_OPCODE_CHARACTER_DELETE,
		"character select":   packet.C_OPCODE_CHARACTER_SELECT,
		"entered world":      packet.C_OPCODE_ENTERED_WORLD,
		"movement":           packet.C_OPCODE_MOVEMENT,
		"cast spell":         packet.C_OPCODE_CAST_SPELL,
		"cancel cast":        packet.C_OPCODE_CANCEL_CAST,
		"set target":         packet.C_OPCODE_SET_TARGET,
		"npc interact":       packet.C_OPCODE_NPC_INTERACT,
		"chat":               packet.C_OPCODE_CHAT,
		"keep alive":         packet.C_OPCODE_KEEP_ALIVE,
	}
	for name, op := range opcodes {
		assert.True(t, reg.Handles(op), "no handler registered for %s (0x%04x)", name, op)
	}
}
