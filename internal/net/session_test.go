package net

import (
	stdnet "net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Handlers mutate identity on the reader goroutine while the logout callback
// snapshots it from the writer goroutine; the race detector keeps this
// honest.
func TestIdentitySnapshotConcurrent(t *testing.T) {
	client, server := stdnet.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	sess := NewSession(server, 1, 64, 0, time.Second, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= 200; i++ {
			i := i
			sess.SetIdentity(func(id *Identity) {
				id.CharacterID = i
				id.EntityGUID = i
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			id := sess.Identity()
			// The snapshot is internally consistent even mid-update.
			assert.Equal(t, id.CharacterID, id.EntityGUID)
		}
	}()
	wg.Wait()

	id := sess.Identity()
	assert.Equal(t, uint64(200), id.CharacterID)
	assert.Equal(t, uint64(200), id.EntityGUID)
}
