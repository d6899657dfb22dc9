package world

import (
	"sync"
	"time"

	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/data"
	"go.uber.org/zap"
)

// ZoneInstance is one independent realization of a world area. It is a
// single-goroutine actor: every mutation of its entities, grid and AI state
// happens on the Run goroutine, so nothing in here takes a lock. Cross-zone
// interaction is two independent messages; correctness never relies on two
// instances being synchronized.
type ZoneInstance struct {
	WorldID    uint32
	InstanceID uint32
	Content    data.ContentType

	Grid      *SpatialGrid
	Entities  map[uint64]*Entity
	Players   map[uint64]*Entity
	Creatures map[uint64]*Entity

	// creatureOrder keeps a stable iteration order so the per-tick work cap
	// can resume round-robin where the previous tick stopped.
	creatureOrder []uint64
	aiCursor      int

	Cfg    config.WorldConfig
	Static *data.Store
	Alloc  *GUIDAllocator
	Log    *zap.Logger

	// OnTick runs the system pipeline (AI, combat, effects). Wired by the
	// supervisor before Run starts.
	OnTick func(z *ZoneInstance, now time.Time)

	// OnEmpty fires on the actor goroutine when the last player leaves.
	OnEmpty func(z *ZoneInstance)

	// Now is the actor's clock. Tests override it.
	Now func() time.Time

	mailbox       chan func(*ZoneInstance)
	stopCh        chan struct{}
	stopOnce      sync.Once
	effectIDSeq   uint32
	shedWatermark int
}

func NewZoneInstance(worldID, instanceID uint32, content data.ContentType, cfg config.WorldConfig, static *data.Store, alloc *GUIDAllocator, log *zap.Logger) *ZoneInstance {
	size := cfg.MailboxSize
	if size <= 0 {
		size = 1024
	}
	return &ZoneInstance{
		WorldID:       worldID,
		InstanceID:    instanceID,
		Content:       content,
		Grid:          NewSpatialGrid(cfg.CellSize),
		Entities:      make(map[uint64]*Entity),
		Players:       make(map[uint64]*Entity),
		Creatures:     make(map[uint64]*Entity),
		Cfg:           cfg,
		Static:        static,
		Alloc:         alloc,
		Log:           log.With(zap.Uint32("world", worldID), zap.Uint32("instance", instanceID)),
		Now:           time.Now,
		mailbox:       make(chan func(*ZoneInstance), size),
		stopCh:        make(chan struct{}),
		shedWatermark: size / 2,
	}
}

// Post enqueues work for the actor goroutine and reports whether it was
// accepted. Blocks when the mailbox is full rather than dropping; control
// messages must not be lost. A stopped zone refuses the post, so the caller
// can route it to a replacement instance instead of losing it silently.
func (z *ZoneInstance) Post(fn func(*ZoneInstance)) bool {
	// Check stopCh alone first: when both cases are ready the select below
	// picks at random, and a stopped zone must never report acceptance.
	select {
	case <-z.stopCh:
		return false
	default:
	}
	select {
	case <-z.stopCh:
		return false
	case z.mailbox <- fn:
		return true
	}
}

// PostDroppable enqueues low-priority work (movement rebroadcasts). When the
// mailbox sits above the shedding watermark the message is dropped; the next
// position update supersedes it anyway.
func (z *ZoneInstance) PostDroppable(fn func(*ZoneInstance)) {
	if len(z.mailbox) >= z.shedWatermark {
		return
	}
	z.Post(fn)
}

// ScheduleAfter posts fn to the actor after d. The closure must re-check
// entity liveness itself: the referenced entity may be gone by then.
func (z *ZoneInstance) ScheduleAfter(d time.Duration, fn func(*ZoneInstance)) {
	time.AfterFunc(d, func() { z.Post(fn) })
}

// Stop shuts the actor down. Idempotent; pending mailbox messages are
// dropped.
func (z *ZoneInstance) Stop() {
	z.stopOnce.Do(func() { close(z.stopCh) })
}

// Stopped reports whether Stop has been called.
func (z *ZoneInstance) Stopped() bool {
	select {
	case <-z.stopCh:
		return true
	default:
		return false
	}
}

// Run is the actor loop. A panic in a message or tick is recovered: the one
// message is lost, the zone keeps running.
func (z *ZoneInstance) Run() {
	ticker := time.NewTicker(z.Cfg.TickRate)
	defer ticker.Stop()

	z.Log.Info("地圖實例啟動", zap.String("content", string(z.Content)))
	for {
		select {
		case <-z.stopCh:
			z.Log.Info("地圖實例停止")
			return
		case fn := <-z.mailbox:
			z.safeRun(func() { fn(z) })
		case <-ticker.C:
			z.safeRun(func() {
				if z.OnTick != nil {
					z.OnTick(z, z.Now())
				}
			})
		}
	}
}

func (z *ZoneInstance) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			z.Log.Error("地圖實例 panic 已恢復", zap.Any("panic", r))
		}
	}()
	fn()
}

// NextEffectID allocates a per-zone effect id. Actor goroutine only.
func (z *ZoneInstance) NextEffectID() uint32 {
	z.effectIDSeq++
	return z.effectIDSeq
}

// AddEntity inserts an entity into the zone and its grid. Actor goroutine
// only; external callers go through Post.
func (z *ZoneInstance) AddEntity(e *Entity) {
	z.Entities[e.GUID] = e
	z.Grid.Insert(e.GUID, e.Pos)
	switch e.Kind {
	case KindPlayer:
		z.Players[e.GUID] = e
	case KindCreature:
		z.Creatures[e.GUID] = e
		z.creatureOrder = append(z.creatureOrder, e.GUID)
	}
}

// RemoveEntity takes an entity out of the zone. Returns the entity, or nil
// if the guid was not here.
func (z *ZoneInstance) RemoveEntity(guid uint64) *Entity {
	e, ok := z.Entities[guid]
	if !ok {
		return nil
	}
	delete(z.Entities, guid)
	z.Grid.Remove(guid)
	switch e.Kind {
	case KindPlayer:
		delete(z.Players, guid)
		if len(z.Players) == 0 && z.OnEmpty != nil {
			z.OnEmpty(z)
		}
	case KindCreature:
		delete(z.Creatures, guid)
		for i, g := range z.creatureOrder {
			if g == guid {
				z.creatureOrder = append(z.creatureOrder[:i], z.creatureOrder[i+1:]...)
				if z.aiCursor > i {
					z.aiCursor--
				}
				break
			}
		}
	}
	return e
}

// UpdatePosition moves an entity, keeping position field and grid cell
// consistent in one step.
func (z *ZoneInstance) UpdatePosition(guid uint64, pos, rot, vel Vec3) {
	e, ok := z.Entities[guid]
	if !ok {
		return
	}
	e.Pos = pos
	e.Rot = rot
	e.Velocity = vel
	z.Grid.Update(guid, pos)
}

// CreatureBudget returns up to max creature guids starting at the
// round-robin cursor and advances the cursor past them.
func (z *ZoneInstance) CreatureBudget(max int) []uint64 {
	n := len(z.creatureOrder)
	if n == 0 {
		return nil
	}
	if max <= 0 || max > n {
		max = n
	}
	out := make([]uint64, 0, max)
	for i := 0; i < max; i++ {
		out = append(out, z.creatureOrder[(z.aiCursor+i)%n])
	}
	z.aiCursor = (z.aiCursor + max) % n
	return out
}

// PlayersInRange returns live player entities within radius of pos.
func (z *ZoneInstance) PlayersInRange(pos Vec3, radius float32) []*Entity {
	var out []*Entity
	for _, guid := range z.Grid.EntitiesInRange(pos, radius) {
		if e := z.Players[guid]; e != nil && e.Alive() {
			out = append(out, e)
		}
	}
	return out
}

// BroadcastNear sends one packet to every player within the zone's
// broadcast radius of pos. The connection serializes outbound itself, so no
// further synchronization happens per recipient.
func (z *ZoneInstance) BroadcastNear(pos Vec3, pkt []byte) {
	for _, p := range z.playersNear(pos) {
		if p.Sess != nil {
			p.Sess.Send(pkt)
		}
	}
}

// BroadcastNearExcept is BroadcastNear minus one observer (usually the
// originator, who already knows).
func (z *ZoneInstance) BroadcastNearExcept(pos Vec3, except uint64, pkt []byte) {
	for _, p := range z.playersNear(pos) {
		if p.GUID != except && p.Sess != nil {
			p.Sess.Send(pkt)
		}
	}
}

func (z *ZoneInstance) playersNear(pos Vec3) []*Entity {
	var out []*Entity
	for _, guid := range z.Grid.EntitiesInRange(pos, z.Cfg.BroadcastRadius) {
		if e := z.Players[guid]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// SpawnCreatures populates the roster from static spawn data. Called once
// on the actor goroutine before ticks begin.
func (z *ZoneInstance) SpawnCreatures() {
	for _, sp := range z.Static.Creatures.SpawnsFor(z.WorldID) {
		tmpl := z.Static.Creatures.Get(sp.TemplateID)
		if tmpl == nil {
			z.Log.Warn("生物模板不存在", zap.Uint32("template", sp.TemplateID))
			continue
		}
		z.SpawnCreature(tmpl, Vec3{sp.X, sp.Y, sp.Z}, Vec3{Z: sp.RotZ})
	}
	z.Log.Info("生物生成完成", zap.Int("count", len(z.Creatures)))
}

// SpawnCreature creates one creature entity at pos with a fresh GUID.
func (z *ZoneInstance) SpawnCreature(tmpl *data.CreatureTemplate, pos, rot Vec3) *Entity {
	e := &Entity{
		GUID:      z.Alloc.Allocate(KindCreature),
		Kind:      KindCreature,
		Name:      tmpl.Name,
		Pos:       pos,
		Rot:       rot,
		Faction:   FactionFromID(tmpl.FactionID),
		Level:     tmpl.Level,
		Health:    tmpl.MaxHealth,
		MaxHealth: tmpl.MaxHealth,
		Template:  tmpl,
		SpawnPos:  pos,
		AIState:   AIIdle,
	}
	z.AddEntity(e)
	return e
}

// FactionFromID maps a static-data faction id onto the symbolic relation
// set. Retail data uses dense low ids for the playable factions.
func FactionFromID(id uint32) Faction {
	switch id {
	case 166:
		return FactionExile
	case 167:
		return FactionDominion
	case 0:
		return FactionNeutral
	case 1:
		return FactionFriendly
	default:
		return FactionHostile
	}
}
