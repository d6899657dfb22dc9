package world

import "sync/atomic"

// Kind is the entity type tag carried in the low two bits of a GUID.
type Kind uint8

const (
	KindPlayer   Kind = 1
	KindCreature Kind = 2
	KindObject   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindCreature:
		return "creature"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// GUIDAllocator hands out process-wide unique entity identifiers: a
// monotonic counter in the high bits, the kind tag in the low two bits.
// Never reused within an uptime. Single counter for the whole server;
// partitioning it per zone would defeat the uniqueness guarantee.
type GUIDAllocator struct {
	counter atomic.Uint64
}

func (a *GUIDAllocator) Allocate(kind Kind) uint64 {
	n := a.counter.Add(1)
	return n<<2 | uint64(kind&0x3)
}

// KindOf extracts the type tag from a GUID.
func KindOf(guid uint64) Kind {
	return Kind(guid & 0x3)
}
