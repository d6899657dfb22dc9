package world

import (
	"sync"
	"time"

	"github.com/wsgo/server/internal/config"
	"github.com/wsgo/server/internal/data"
	"go.uber.org/zap"
)

type zoneKey struct {
	worldID    uint32
	instanceID uint32
}

// Supervisor maps (world_id, instance_id) to live zone actors. Instances
// spawn lazily on first entry and retire by content-type TTL once empty.
// Contention is entry-rate, so a mutex-protected map is fine.
type Supervisor struct {
	mu           sync.Mutex
	zones        map[zoneKey]*ZoneInstance
	joinable     map[uint32]*ZoneInstance // world_id → current joinable instance
	nextInstance map[uint32]uint32        // world_id → monotonic instance counter

	cfg    *config.Config
	static *data.Store
	alloc  *GUIDAllocator
	log    *zap.Logger

	// TickFunc is installed on every spawned zone. Wired at boot with the
	// system pipeline.
	TickFunc func(z *ZoneInstance, now time.Time)
}

func NewSupervisor(cfg *config.Config, static *data.Store, alloc *GUIDAllocator, log *zap.Logger) *Supervisor {
	return &Supervisor{
		zones:        make(map[zoneKey]*ZoneInstance),
		joinable:     make(map[uint32]*ZoneInstance),
		nextInstance: make(map[uint32]uint32),
		cfg:          cfg,
		static:       static,
		alloc:        alloc,
		log:          log,
	}
}

// Enter returns the joinable instance for a world area, spawning one when
// none exists. Instance ids are monotonic per world and never reused within
// an uptime.
func (s *Supervisor) Enter(worldID uint32) (*ZoneInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if z, ok := s.joinable[worldID]; ok && !z.Stopped() {
		return z, true
	}

	tmpl := s.static.Zones.Get(worldID)
	if tmpl == nil {
		return nil, false
	}

	s.nextInstance[worldID]++
	instanceID := s.nextInstance[worldID]
	z := NewZoneInstance(worldID, instanceID, tmpl.Content, s.cfg.World, s.static, s.alloc, s.log)
	z.OnTick = s.TickFunc
	z.OnEmpty = s.zoneEmptied

	s.zones[zoneKey{worldID, instanceID}] = z
	s.joinable[worldID] = z

	go z.Run()
	z.Post(func(z *ZoneInstance) { z.SpawnCreatures() })
	return z, true
}

// Get returns a specific live instance.
func (s *Supervisor) Get(worldID, instanceID uint32) (*ZoneInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[zoneKey{worldID, instanceID}]
	return z, ok
}

// zoneEmptied runs on the zone's actor goroutine when its last player
// leaves. It arms the retirement timer for the content type; the disconnect
// grace keeps the instance alive long enough for a crashed client to rejoin
// the same run.
func (s *Supervisor) zoneEmptied(z *ZoneInstance) {
	ttl, grace, persistent := s.retirePolicy(z.Content)
	if persistent {
		return
	}
	delay := ttl
	if grace > delay {
		delay = grace
	}
	// The timer re-checks occupancy on the zone goroutine, so a rejoin
	// inside the window cancels retirement.
	z.ScheduleAfter(delay, func(z *ZoneInstance) {
		if len(z.Players) == 0 {
			s.retire(z)
		}
	})
}

func (s *Supervisor) retirePolicy(content data.ContentType) (ttl, grace time.Duration, persistent bool) {
	inst := s.cfg.Instances
	switch content {
	case data.ContentExpedition:
		return inst.ExpeditionTTL, inst.ExpeditionGrace, false
	case data.ContentDungeon:
		return inst.DungeonTTL, inst.DungeonGrace, false
	case data.ContentRaid:
		return 0, inst.RaidGrace, inst.RaidPersistent
	default:
		// Open world stays up; the tick is cheap when nobody is there.
		return 0, 0, true
	}
}

// retire stops the actor and unregisters it. Runs on the zone goroutine via
// ScheduleAfter, so the empty check it follows is race-free.
func (s *Supervisor) retire(z *ZoneInstance) {
	if len(z.Players) != 0 {
		return
	}
	s.mu.Lock()
	delete(s.zones, zoneKey{z.WorldID, z.InstanceID})
	if s.joinable[z.WorldID] == z {
		delete(s.joinable, z.WorldID)
	}
	s.mu.Unlock()

	z.Stop()
	s.log.Info("地圖實例退役",
		zap.Uint32("world", z.WorldID),
		zap.Uint32("instance", z.InstanceID),
		zap.String("content", string(z.Content)),
	)
}

// StopAll shuts every instance down. Boot/shutdown path only.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, z := range s.zones {
		z.Stop()
		delete(s.zones, k)
	}
	s.joinable = make(map[uint32]*ZoneInstance)
}

// ForEach visits every live instance. The callback must not call back into
// the supervisor.
func (s *Supervisor) ForEach(fn func(*ZoneInstance)) {
	s.mu.Lock()
	zones := make([]*ZoneInstance, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, z)
	}
	s.mu.Unlock()
	for _, z := range zones {
		fn(z)
	}
}

// Count returns the number of live instances.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.zones)
}
