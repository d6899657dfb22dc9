package handler

import (
	"context"

	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/persist"
	"github.com/wsgo/server/internal/system"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// HandleEnteredWorld spawns the player entity into its zone: the client has
// finished loading. The spawn broadcast to observers happens immediately,
// not on the next tick.
func HandleEnteredWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	z := zoneFor(sess, deps)
	if z == nil {
		deps.Log.Warn("進入世界時地圖已消失", zap.Uint64("session", sess.ID))
		sess.Close()
		return
	}

	ident := sess.Identity()
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	c, err := deps.CharRepo.ByID(ctx, ident.CharacterID)
	if err != nil || c == nil {
		deps.Log.Error("進入世界時角色載入失敗", zap.Error(err))
		sess.Close()
		return
	}

	guid := deps.Directory.Alloc.Allocate(world.KindPlayer)
	sess.SetIdentity(func(id *net.Identity) { id.EntityGUID = guid })
	deps.Directory.BindName(c.Name, ident.AccountID)
	sess.SetState(packet.StateInWorld)

	player := playerEntityFromRow(c, guid, sess)
	spawn := func(z *world.ZoneInstance) {
		z.AddEntity(player)

		// Self first, then the neighbourhood in both directions.
		self := system.BuildEntityCreate(player)
		sess.Send(self)
		z.BroadcastNearExcept(player.Pos, guid, self)
		for _, other := range z.Grid.EntitiesInRange(player.Pos, z.Cfg.BroadcastRadius) {
			if other == guid {
				continue
			}
			if e := z.Entities[other]; e != nil {
				sess.Send(system.BuildEntityCreate(e))
			}
		}
	}

	if !z.Post(spawn) {
		// The instance retired between character select and load-in. Run the
		// entry again; the supervisor hands out a live replacement.
		replacement, ok := deps.Zones.Enter(z.WorldID)
		if !ok || !replacement.Post(spawn) {
			deps.Log.Warn("進入世界時地圖已退役", zap.Uint64("session", sess.ID))
			sess.Close()
			return
		}
		z = replacement
		sess.SetIdentity(func(id *net.Identity) {
			id.WorldID = z.WorldID
			id.InstanceID = z.InstanceID
		})
	}

	deps.Log.Info("玩家進入世界",
		zap.Uint64("account", ident.AccountID),
		zap.String("name", c.Name),
		zap.Uint32("world", z.WorldID),
		zap.Uint32("instance", z.InstanceID),
	)
}

// Logout tears down a session's world presence: despawn, directory removal,
// and a final character save. Installed as the session close callback.
func Logout(sess *net.Session, deps *Deps) {
	ident := sess.Identity()

	if ident.EntityGUID != 0 {
		if z := zoneFor(sess, deps); z != nil {
			guid := ident.EntityGUID
			z.Post(func(z *world.ZoneInstance) {
				e := z.RemoveEntity(guid)
				if e == nil {
					return
				}
				z.BroadcastNear(e.Pos, system.BuildEntityDestroy(guid))
				saveEntity(z, e, deps)
			})
		}
	}
	if ident.AccountID != 0 {
		deps.Directory.Unbind(ident.AccountID, ident.CharacterName, sess)
	}
}

// saveEntity snapshots a player entity for the save queue. Zone actor
// goroutine only.
func saveEntity(z *world.ZoneInstance, e *world.Entity, deps *Deps) {
	if !e.IsPlayer() || e.CharacterID == 0 {
		return
	}
	deps.SaveQueue.Enqueue(&persist.CharacterRow{
		CharacterID: e.CharacterID,
		Level:       e.Level,
		XP:          e.XP,
		Currency:    e.Currency,
		WorldID:     z.WorldID,
		PosX:        e.Pos.X,
		PosY:        e.Pos.Y,
		PosZ:        e.Pos.Z,
		RotZ:        e.Rot.Z,
	})
}
