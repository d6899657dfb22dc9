package net

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wsgo/server/internal/auth"
	"github.com/wsgo/server/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Identity is what the handshake and character select pin to a connection.
// Handlers write it on the reader goroutine, but the logout callback reads
// it and may fire from the writer goroutine, so access goes through
// Identity / SetIdentity.
type Identity struct {
	AccountID     uint64
	AccountEmail  string
	CharacterID   uint64
	CharacterName string
	EntityGUID    uint64
	WorldID       uint32
	InstanceID    uint32
}

// Session represents a single client connection. The reader goroutine owns
// inbound framing, decryption and handler dispatch (FIFO per connection);
// the writer goroutine owns encryption and the socket. Everything else talks
// to the session through Send and the identity snapshot.
type Session struct {
	ID   uint64
	conn net.Conn

	cipher atomic.Pointer[Cipher]
	state  atomic.Int32 // packet.SessionState stored as int32

	OutQueue chan []byte // writer goroutine drains this

	IP string

	// SRP lives only between challenge and proof. Reader goroutine only.
	SRP *auth.ServerSession

	idMu sync.Mutex
	id   Identity

	limiter *rate.Limiter // nil = unlimited

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// onClose runs once, after the socket is closed. The server wires the
	// logout path (despawn + directory removal) through it.
	onClose atomic.Pointer[func(*Session)]

	writeTimeout time.Duration

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, outSize, pktPerSec int, writeTimeout time.Duration, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		OutQueue:     make(chan []byte, outSize),
		IP:           conn.RemoteAddr().String(),
		closeCh:      make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
	if pktPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(pktPerSec), pktPerSec)
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

// Identity returns a snapshot of the session's identity.
func (s *Session) Identity() Identity {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.id
}

// SetIdentity applies a mutation to the identity under the lock.
func (s *Session) SetIdentity(mut func(*Identity)) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	mut(&s.id)
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// InstallKey derives the cipher from a 16-byte secret and arms both
// directions. Called once per handshake stage; the world key replaces the
// auth key wholesale.
func (s *Session) InstallKey(secret [16]byte) {
	c := NewCipher(secret)
	s.cipher.Store(c)
}

// HasKey reports whether a cipher is installed.
func (s *Session) HasKey() bool {
	return s.cipher.Load() != nil
}

// DecryptEnvelope decrypts the body of an encrypted-envelope packet in
// place. An envelope before key install is a protocol violation.
func (s *Session) DecryptEnvelope(body []byte) ([]byte, error) {
	c := s.cipher.Load()
	if c == nil {
		return nil, fmt.Errorf("encrypted envelope before key install")
	}
	return c.Decrypt(body), nil
}

// Start launches the writer goroutine. The caller runs the read loop.
func (s *Session) Start(reg *packet.Registry) {
	go s.writeLoop()
	go s.readLoop(reg)
}

// Send queues a cleartext packet (opcode + payload) for the writer. The
// queue is bounded; a stalled client is disconnected rather than allowed to
// accumulate unbounded memory.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- data:
	default:
		s.log.Warn("輸出佇列已滿，斷開慢速連線")
		s.Close()
	}
}

// SetOnClose installs the single logout callback.
func (s *Session) SetOnClose(fn func(*Session)) {
	s.onClose.Store(&fn)
}

// Close gracefully shuts down the session and fires the logout callback.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
		if fn := s.onClose.Load(); fn != nil {
			(*fn)(s)
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads frames and dispatches them inline, which preserves FIFO
// order per connection. Handlers are non-blocking on world state (they post
// messages to zone actors), so the only thing a slow handler can stall is
// its own client.
func (s *Session) readLoop(reg *packet.Registry) {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn("封包速率超限，斷開連線")
			return
		}

		if err := reg.Dispatch(s, s.State(), payload); err != nil {
			s.log.Warn("協定違規，斷開連線", zap.Error(err))
			return
		}
	}
}

// writeLoop drains OutQueue, wrapping packets in the encrypted envelope once
// a key is installed. Handshake packets before key install go out as-is.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOnePacket(data) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOnePacket(data []byte) bool {
	if len(data) >= 2 {
		s.log.Debug("TX",
			zap.String("op", fmt.Sprintf("0x%02X%02X", data[1], data[0])),
			zap.Int("len", len(data)),
		)
	}

	out := data
	if c := s.cipher.Load(); c != nil {
		inner := make([]byte, len(data))
		copy(inner, data)
		c.Encrypt(inner)
		w := packet.NewWriterWithOpcode(packet.OPCODE_ENCRYPTED)
		w.WriteBytes(inner)
		out = w.Bytes()
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := WriteFrame(s.conn, 0, out); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
