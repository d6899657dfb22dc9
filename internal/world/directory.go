package world

import (
	"strings"
	"sync"

	"github.com/wsgo/server/internal/net"
)

// Directory is the process-wide session index: account → session, plus the
// lower(name) → account index that whisper routing and GM lookups use. It
// also owns the GUID allocator. Session-event-rate contention, so a mutex
// beats an actor here.
type Directory struct {
	mu       sync.Mutex
	sessions map[uint64]*net.Session // account_id → session
	names    map[string]uint64       // lower(character_name) → account_id

	Alloc GUIDAllocator
}

func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[uint64]*net.Session),
		names:    make(map[string]uint64),
	}
}

// Bind registers a session for an account and returns the previous session
// if one was still bound. Live duplicates are rejected before binding, so a
// non-nil return is a closed leftover the caller finishes tearing down.
func (d *Directory) Bind(accountID uint64, sess *net.Session) *net.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.sessions[accountID]
	if prev == sess {
		prev = nil
	}
	d.sessions[accountID] = sess
	return prev
}

// BindName indexes a character name once the session enters the world.
func (d *Directory) BindName(name string, accountID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[strings.ToLower(name)] = accountID
}

// Unbind removes a session and its name entry. Only the session being
// removed may clear the account slot; a reconnect may have replaced it.
func (d *Directory) Unbind(accountID uint64, name string, sess *net.Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur := d.sessions[accountID]; cur == sess {
		delete(d.sessions, accountID)
	}
	if name != "" {
		key := strings.ToLower(name)
		if d.names[key] == accountID {
			delete(d.names, key)
		}
	}
}

// SessionFor returns the live session for an account.
func (d *Directory) SessionFor(accountID uint64) *net.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[accountID]
}

// LookupName resolves a character name to its account's session. O(1).
func (d *Directory) LookupName(name string) *net.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	acc, ok := d.names[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return d.sessions[acc]
}

// Broadcast sends one packet to every bound session (global chat, server
// announcements).
func (d *Directory) Broadcast(pkt []byte) {
	d.mu.Lock()
	sessions := make([]*net.Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.mu.Unlock()
	for _, s := range sessions {
		s.Send(pkt)
	}
}

// Online returns the number of bound sessions.
func (d *Directory) Online() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
