package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/world"
)

func TestBuildEntityCreateLayout(t *testing.T) {
	e := &world.Entity{
		GUID:      0xABCD,
		Kind:      world.KindCreature,
		Name:      "Razortail Skug",
		Pos:       world.Vec3{X: 1, Y: 2, Z: 3},
		Health:    78,
		MaxHealth: 100,
		Level:     3,
		Faction:   world.FactionHostile,
	}

	r := packet.NewReader(BuildEntityCreate(e))
	assert.Equal(t, packet.S_OPCODE_ENTITY_CREATE, r.Opcode())
	assert.Equal(t, uint64(0xABCD), r.ReadQ())
	assert.Equal(t, uint8(world.KindCreature), r.ReadC())
	assert.Equal(t, "Razortail Skug", r.ReadWS())
	assert.Equal(t, float32(1), r.ReadF())
	assert.Equal(t, float32(2), r.ReadF())
	assert.Equal(t, float32(3), r.ReadF())
	r.ReadF()
	r.ReadF()
	r.ReadF()
	assert.Equal(t, uint32(78), r.ReadD())
	assert.Equal(t, uint32(100), r.ReadD())
	assert.Equal(t, uint32(3), r.ReadD())
	assert.Equal(t, uint8(world.FactionHostile), r.ReadC())
	assert.False(t, r.Overrun())
}

func TestBuildSpellGoLayout(t *testing.T) {
	r := packet.NewReader(BuildSpellGo(7, 9, 55665, 22, 0, 5))
	assert.Equal(t, packet.S_OPCODE_SPELL_GO, r.Opcode())
	assert.Equal(t, uint64(7), r.ReadQ())
	assert.Equal(t, uint64(9), r.ReadQ())
	assert.Equal(t, uint32(55665), r.ReadD())
	assert.Equal(t, uint32(22), r.ReadD())
	assert.Equal(t, uint32(0), r.ReadD())
	assert.Equal(t, uint32(5), r.ReadD())
}

func TestBuildBuffRemoveLayout(t *testing.T) {
	r := packet.NewReader(BuildBuffRemove(7, 4801, packet.BuffRemoveExpired))
	assert.Equal(t, packet.S_OPCODE_BUFF_REMOVE, r.Opcode())
	assert.Equal(t, uint64(7), r.ReadQ())
	assert.Equal(t, uint32(4801), r.ReadD())
	assert.Equal(t, packet.BuffRemoveExpired, r.ReadC())
}

func TestBuildChatNpcPackedFields(t *testing.T) {
	r := packet.NewReader(BuildChatNpc(uint16(packet.ChatSay), 0xDEADBEEF, 1001, 2001))
	assert.Equal(t, packet.S_OPCODE_CHAT_NPC, r.Opcode())
	assert.Equal(t, uint64(packet.ChatSay), r.ReadBits(14))
	assert.Equal(t, uint64(0xDEADBEEF), r.ReadBits(64))
	assert.Equal(t, uint64(1001), r.ReadBits(21))
	assert.Equal(t, uint64(2001), r.ReadBits(21))
	assert.False(t, r.Overrun())
}
