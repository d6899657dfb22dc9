package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestRedeemWithinTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var key [16]byte
	copy(key[:], "abcdefghijklmnop")
	store.Put(7, key)

	// Exactly at the expiry instant is still valid.
	now = now.Add(time.Hour)
	sess, ok := store.Redeem(7, key[:])
	require.True(t, ok)
	assert.Equal(t, uint64(7), sess.AccountID)
}

func TestRedeemExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var key [16]byte
	store.Put(7, key)

	now = now.Add(time.Hour + time.Second)
	_, ok := store.Redeem(7, key[:])
	assert.False(t, ok)
}

func TestRedeemSingleUse(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var key [16]byte
	key[0] = 0x42
	store.Put(7, key)

	_, ok := store.Redeem(7, key[:])
	require.True(t, ok)
	_, ok = store.Redeem(7, key[:])
	assert.False(t, ok)
}

func TestRedeemWrongKey(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var key [16]byte
	key[0] = 0x42
	store.Put(7, key)

	wrong := make([]byte, 16)
	_, ok := store.Redeem(7, wrong)
	assert.False(t, ok)

	// The failed attempt must not consume the session.
	_, ok = store.Redeem(7, key[:])
	assert.True(t, ok)
}

func TestPutReplacesUnredeemed(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var old, fresh [16]byte
	old[0], fresh[0] = 1, 2
	store.Put(7, old)
	store.Put(7, fresh)

	_, ok := store.Redeem(7, old[:])
	assert.False(t, ok)
	_, ok = store.Redeem(7, fresh[:])
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewSessionStore(time.Hour)
	store.SetClock(fixedClock(&now))

	var key [16]byte
	store.Put(1, key)
	store.Put(2, key)

	assert.Equal(t, 0, store.Sweep())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 0, store.Sweep())
}
