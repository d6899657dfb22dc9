package handler

import (
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// interactRange is how far away an NPC can still be talked to.
const interactRange float32 = 10

// HandleNpcInteract runs the Lua dialog hook for a creature. The event is a
// 7-bit field straight from the client's interaction widget.
func HandleNpcInteract(sess *net.Session, r *packet.Reader, deps *Deps) {
	npcGUID := r.ReadQ()
	event := uint8(r.ReadBits(7))
	if r.Overrun() {
		sess.Close()
		return
	}

	z := zoneFor(sess, deps)
	if z == nil {
		return
	}
	guid := sess.Identity().EntityGUID
	engine := deps.Scripting
	log := deps.Log

	z.Post(func(z *world.ZoneInstance) {
		player := z.Entities[guid]
		npc := z.Entities[npcGUID]
		if player == nil || npc == nil || npc.Template == nil {
			return
		}
		if player.Pos.DistSq(npc.Pos) > interactRange*interactRange {
			return
		}

		res, err := engine.OnNpcInteract(npc.Template.TemplateID, event)
		if err != nil {
			log.Error("NPC 腳本錯誤",
				zap.Uint32("template", npc.Template.TemplateID), zap.Error(err))
			return
		}
		if res == nil {
			return
		}
		if res.DialogUnitID != 0 {
			sess.Send(system.BuildDialogStart(res.DialogUnitID, false))
		}
		if res.ChatTextID != 0 {
			sess.Send(system.BuildChatNpc(uint16(packet.ChatSay), npc.GUID, res.NameTextID, res.ChatTextID))
		}
	})
}
