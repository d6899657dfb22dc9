package world

import (
	stdnet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonet "github.com/wsgo/server/internal/net"
	"go.uber.org/zap"
)

func newPipeSession(t *testing.T, id uint64) *gonet.Session {
	t.Helper()
	client, server := stdnet.Pipe()
	t.Cleanup(func() { client.Close() })
	return gonet.NewSession(server, id, 16, 0, time.Second, zap.NewNop())
}

func TestDirectoryBindAndLookup(t *testing.T) {
	d := NewDirectory()
	s1 := newPipeSession(t, 1)

	prev := d.Bind(42, s1)
	assert.Nil(t, prev)
	assert.Same(t, s1, d.SessionFor(42))
	assert.Equal(t, 1, d.Online())

	d.BindName("Deadeye", 42)
	assert.Same(t, s1, d.LookupName("deadeye"))
	assert.Same(t, s1, d.LookupName("DEADEYE"))
	assert.Nil(t, d.LookupName("carol"))
}

func TestDirectoryDuplicateLogin(t *testing.T) {
	d := NewDirectory()
	s1 := newPipeSession(t, 1)
	s2 := newPipeSession(t, 2)

	require.Nil(t, d.Bind(42, s1))
	prev := d.Bind(42, s2)
	assert.Same(t, s1, prev)
	assert.Same(t, s2, d.SessionFor(42))

	// Rebinding the same session is not a duplicate.
	assert.Nil(t, d.Bind(42, s2))
}

func TestDirectoryUnbindOnlyOwnSession(t *testing.T) {
	d := NewDirectory()
	s1 := newPipeSession(t, 1)
	s2 := newPipeSession(t, 2)

	d.Bind(42, s1)
	d.BindName("Deadeye", 42)

	// A reconnect replaced the slot; the old session's unbind must not
	// evict the new one.
	d.Bind(42, s2)
	d.Unbind(42, "Deadeye", s1)
	assert.Same(t, s2, d.SessionFor(42))

	d.Unbind(42, "Deadeye", s2)
	assert.Nil(t, d.SessionFor(42))
	assert.Nil(t, d.LookupName("deadeye"))
	assert.Equal(t, 0, d.Online())
}

func TestDirectoryBroadcast(t *testing.T) {
	d := NewDirectory()
	s1 := newPipeSession(t, 1)
	s2 := newPipeSession(t, 2)
	d.Bind(1, s1)
	d.Bind(2, s2)

	pkt := []byte{0x81, 0x01, 0xFF}
	d.Broadcast(pkt)

	assert.Equal(t, pkt, <-s1.OutQueue)
	assert.Equal(t, pkt, <-s2.OutQueue)
}

func TestGUIDAllocator(t *testing.T) {
	var alloc GUIDAllocator

	a := alloc.Allocate(KindPlayer)
	b := alloc.Allocate(KindCreature)
	c := alloc.Allocate(KindPlayer)

	assert.Equal(t, KindPlayer, KindOf(a))
	assert.Equal(t, KindCreature, KindOf(b))
	assert.NotEqual(t, a, c)
	assert.Greater(t, c, a)
}

func TestFactionMatrix(t *testing.T) {
	assert.True(t, IsHostile(FactionExile, FactionDominion))
	assert.True(t, IsHostile(FactionDominion, FactionExile))
	assert.True(t, IsHostile(FactionHostile, FactionExile))
	assert.True(t, IsHostile(FactionHostile, FactionDominion))
	assert.True(t, IsHostile(FactionHostile, FactionHostile))
	assert.True(t, IsHostile(FactionExile, FactionHostile))

	assert.False(t, IsHostile(FactionExile, FactionExile))
	assert.False(t, IsHostile(FactionNeutral, FactionExile))
	assert.False(t, IsHostile(FactionFriendly, FactionHostile))
	assert.False(t, IsHostile(FactionExile, FactionNeutral))
	assert.False(t, IsHostile(FactionExile, FactionFriendly))
}
