package handler

import (
	"context"

	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/persist"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// Character create result codes carried by S_OPCODE_CHARACTER_CREATE.
const (
	createOK        byte = 0
	createBadName   byte = 1
	createNameTaken byte = 2
	createFailed    byte = 3
)

// HandleCharacterList answers with the account's live characters.
func HandleCharacterList(sess *net.Session, r *packet.Reader, deps *Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	chars, err := deps.CharRepo.CharactersFor(ctx, sess.Identity().AccountID)
	if err != nil {
		deps.Log.Error("角色列表查詢失敗", zap.Error(err))
		sess.Close()
		return
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHARACTER_LIST)
	w.WriteC(uint8(len(chars)))
	for _, c := range chars {
		w.WriteQ(c.CharacterID)
		w.WriteWS(c.Name)
		w.WriteD(c.FactionID)
		w.WriteD(uint32(c.Level))
		w.WriteD(c.WorldID)
	}
	sess.Send(w.Bytes())
}

// HandleCharacterCreate provisions a new character at the default world's
// entry point.
func HandleCharacterCreate(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadWS()
	factionID := r.ReadD()
	if r.Overrun() {
		sess.Close()
		return
	}

	if len(name) < 2 || len(name) > 24 {
		sendCreateResult(sess, createBadName, 0)
		return
	}

	worldID := deps.Config.World.DefaultWorldID
	zone := deps.Static.Zones.Get(worldID)
	if zone == nil {
		sendCreateResult(sess, createFailed, 0)
		return
	}

	row := &persist.CharacterRow{
		AccountID:   sess.Identity().AccountID,
		Name:        name,
		FactionID:   factionID,
		Level:       1,
		WorldID:     worldID,
		PosX:        zone.SpawnX,
		PosY:        zone.SpawnY,
		PosZ:        zone.SpawnZ,
		MaxHealth:   100,
		MaxResource: 100,
		Speed:       7,
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	id, err := deps.CharRepo.Create(ctx, row)
	if err != nil {
		// Almost always the live-name unique index.
		deps.Log.Info("角色建立失敗", zap.String("name", name), zap.Error(err))
		sendCreateResult(sess, createNameTaken, 0)
		return
	}
	sendCreateResult(sess, createOK, id)
}

func sendCreateResult(sess *net.Session, code byte, characterID uint64) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHARACTER_CREATE)
	w.WriteC(code)
	w.WriteQ(characterID)
	sess.Send(w.Bytes())
}

// HandleCharacterDelete soft-deletes a character the account owns.
func HandleCharacterDelete(sess *net.Session, r *packet.Reader, deps *Deps) {
	characterID := r.ReadQ()
	if r.Overrun() {
		sess.Close()
		return
	}

	accountID := sess.Identity().AccountID
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	c, err := deps.CharRepo.ByID(ctx, characterID)
	if err != nil || c == nil || c.AccountID != accountID {
		deps.Log.Warn("刪除他人角色被拒",
			zap.Uint64("account", accountID), zap.Uint64("character", characterID))
		return
	}
	if err := deps.CharRepo.SoftDelete(ctx, characterID); err != nil {
		deps.Log.Error("角色刪除失敗", zap.Error(err))
	}
}

// HandleCharacterSelect binds the session to a character and tells the
// client where to load in. The actual spawn happens on EnteredWorld.
func HandleCharacterSelect(sess *net.Session, r *packet.Reader, deps *Deps) {
	characterID := r.ReadQ()
	if r.Overrun() {
		sess.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	c, err := deps.CharRepo.ByID(ctx, characterID)
	if err != nil {
		deps.Log.Error("角色載入失敗", zap.Error(err))
		sess.Close()
		return
	}
	if c == nil || c.AccountID != sess.Identity().AccountID {
		deps.Log.Warn("選取他人角色被拒",
			zap.Uint64("account", sess.Identity().AccountID), zap.Uint64("character", characterID))
		sess.Close()
		return
	}

	zone, ok := deps.Zones.Enter(c.WorldID)
	if !ok {
		deps.Log.Error("地圖不存在", zap.Uint32("world", c.WorldID))
		sess.Close()
		return
	}

	sess.SetIdentity(func(id *net.Identity) {
		id.CharacterID = c.CharacterID
		id.CharacterName = c.Name
		id.WorldID = zone.WorldID
		id.InstanceID = zone.InstanceID
	})
	sess.SetState(packet.StateLoading)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_WORLD_ENTER)
	w.WriteD(zone.WorldID)
	w.WriteD(zone.InstanceID)
	w.WriteF(c.PosX)
	w.WriteF(c.PosY)
	w.WriteF(c.PosZ)
	w.WriteF(c.RotZ)
	sess.Send(w.Bytes())
}

// playerEntityFromRow builds the in-memory entity for a loading character.
func playerEntityFromRow(c *persist.CharacterRow, guid uint64, sess *net.Session) *world.Entity {
	return &world.Entity{
		GUID:        guid,
		Kind:        world.KindPlayer,
		Name:        c.Name,
		Pos:         world.Vec3{X: c.PosX, Y: c.PosY, Z: c.PosZ},
		Rot:         world.Vec3{Z: c.RotZ},
		Faction:     world.FactionFromID(c.FactionID),
		Level:       c.Level,
		Health:      c.MaxHealth,
		MaxHealth:   c.MaxHealth,
		Resource:    c.MaxResource,
		MaxResource: c.MaxResource,
		Speed:       c.Speed,
		Sess:        sess,
		CharacterID: c.CharacterID,
		XP:          c.XP,
		Currency:    c.Currency,
	}
}
