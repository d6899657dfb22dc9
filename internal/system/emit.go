package system

import (
	"github.com/wsgo/server/internal/data"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/world"
)

// Outbound packet builders shared between the tick systems and the packet
// handlers. Field order is part of the wire contract; do not reorder.

func writeVec(w *packet.Writer, v world.Vec3) {
	w.WriteF(v.X)
	w.WriteF(v.Y)
	w.WriteF(v.Z)
}

// BuildEntityCreate announces an entity spawning into an observer's view.
func BuildEntityCreate(e *world.Entity) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENTITY_CREATE)
	w.WriteQ(e.GUID)
	w.WriteC(uint8(e.Kind))
	w.WriteWS(e.Name)
	writeVec(w, e.Pos)
	writeVec(w, e.Rot)
	w.WriteD(uint32(e.Health))
	w.WriteD(uint32(e.MaxHealth))
	w.WriteD(uint32(e.Level))
	w.WriteC(uint8(e.Faction))
	return w.Bytes()
}

// BuildEntityDestroy announces an entity leaving the world.
func BuildEntityDestroy(guid uint64) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENTITY_DESTROY)
	w.WriteQ(guid)
	return w.Bytes()
}

// BuildMovement carries a position update to observers.
func BuildMovement(e *world.Entity, flags uint32, timestamp uint32) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_MOVEMENT)
	w.WriteQ(e.GUID)
	writeVec(w, e.Pos)
	writeVec(w, e.Rot)
	writeVec(w, e.Velocity)
	w.WriteD(flags)
	w.WriteD(timestamp)
	return w.Bytes()
}

// BuildSpellGo reports a resolved cast: totals after absorption.
func BuildSpellGo(casterGUID, targetGUID uint64, spellID uint32, damage, healed, absorbed int32) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_SPELL_GO)
	w.WriteQ(casterGUID)
	w.WriteQ(targetGUID)
	w.WriteD(spellID)
	w.WriteD(uint32(damage))
	w.WriteD(uint32(healed))
	w.WriteD(uint32(absorbed))
	return w.Bytes()
}

// BuildBuffApply announces a new or refreshed active effect.
func BuildBuffApply(targetGUID uint64, eff *world.ActiveEffect, durationMs uint32) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BUFF_APPLY)
	w.WriteQ(targetGUID)
	w.WriteQ(eff.CasterGUID)
	w.WriteD(eff.EffectID)
	w.WriteD(eff.SpellID)
	w.WriteC(effectTypeTag(eff))
	w.WriteD(uint32(eff.Amount))
	w.WriteD(durationMs)
	w.WriteBool(eff.IsDebuff)
	return w.Bytes()
}

// BuildBuffRemove announces an effect ending, with the removal reason.
func BuildBuffRemove(targetGUID uint64, effectID uint32, reason uint8) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_BUFF_REMOVE)
	w.WriteQ(targetGUID)
	w.WriteD(effectID)
	w.WriteC(reason)
	return w.Bytes()
}

// BuildChat carries player chat on any channel.
func BuildChat(channel uint8, from string, msg string) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAT)
	w.WriteC(channel)
	w.WriteWS(from)
	w.WriteWS(msg)
	return w.Bytes()
}

// BuildChatNpc carries scripted NPC speech by localized text id. The narrow
// bit widths match the client's table encoding.
func BuildChatNpc(channel uint16, chatID uint64, unitNameTextID, messageTextID uint32) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAT_NPC)
	w.WriteBits(uint64(channel), 14)
	w.WriteBits(chatID, 64)
	w.WriteBits(uint64(unitNameTextID), 21)
	w.WriteBits(uint64(messageTextID), 21)
	return w.Bytes()
}

// BuildDialogStart opens an NPC dialog window.
func BuildDialogStart(dialogUnitID uint32, playerUnit bool) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_DIALOG_START)
	w.WriteD(dialogUnitID)
	w.WriteBool(playerUnit)
	return w.Bytes()
}

func effectTypeTag(eff *world.ActiveEffect) uint8 {
	switch eff.Kind {
	case data.EffectDamage:
		return 0
	case data.EffectHeal:
		return 1
	case data.EffectAbsorb:
		return 2
	case data.EffectStatMod:
		return 3
	case data.EffectPeriodic:
		return 4
	}
	return 0xFF
}
