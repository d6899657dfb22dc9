package handler

import (
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// yellRadiusFactor widens yell over the normal broadcast radius.
const yellRadiusFactor = 3

// HandleChat routes player chat. Whisper resolves through the directory's
// name index; everything else fans out by channel scope.
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	channel := r.ReadC()
	target := r.ReadWS()
	msg := r.ReadWS()
	if r.Overrun() {
		sess.Close()
		return
	}
	if msg == "" || len(msg) > 512 {
		return
	}

	from := sess.Identity().CharacterName
	pkt := system.BuildChat(channel, from, msg)

	switch channel {
	case packet.ChatWhisper:
		peer := deps.Directory.LookupName(target)
		if peer == nil || peer.IsClosed() {
			sess.Send(system.BuildChat(packet.ChatWhisper, "", "player offline"))
			return
		}
		peer.Send(pkt)
		deps.Log.Debug("密語", zap.String("from", from), zap.String("to", target))

	case packet.ChatGlobal:
		deps.Directory.Broadcast(pkt)

	case packet.ChatZone:
		if z := zoneFor(sess, deps); z != nil {
			z.Post(func(z *world.ZoneInstance) {
				for _, p := range z.Players {
					if p.Sess != nil {
						p.Sess.Send(pkt)
					}
				}
			})
		}

	case packet.ChatLocal, packet.ChatSay, packet.ChatYell:
		z := zoneFor(sess, deps)
		if z == nil {
			return
		}
		guid := sess.Identity().EntityGUID
		z.Post(func(z *world.ZoneInstance) {
			e := z.Entities[guid]
			if e == nil {
				return
			}
			radius := z.Cfg.BroadcastRadius
			if channel == packet.ChatYell {
				radius *= yellRadiusFactor
			}
			for _, p := range z.PlayersInRange(e.Pos, radius) {
				if p.Sess != nil {
					p.Sess.Send(pkt)
				}
			}
		})

	default:
		deps.Log.Warn("未知聊天頻道", zap.Uint8("channel", channel))
	}
}
