package packet

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
// Transitions are monotonic; the only way back is disconnecting.
type SessionState int

const (
	StateHandshake       SessionState = iota // fresh connection, awaiting a hello
	StateAuthChallenged                      // challenge sent, awaiting client proof
	StateAuthDone                            // auth realm finished, session key stored
	StateCharacterSelect                     // world hello accepted, at character select
	StateLoading                             // character chosen, awaiting EnteredWorld
	StateInWorld                             // playing
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateAuthChallenged:
		return "AuthChallenged"
	case StateAuthDone:
		return "AuthDone"
	case StateCharacterSelect:
		return "CharacterSelect"
	case StateLoading:
		return "Loading"
	case StateInWorld:
		return "InWorld"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for packet handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// ErrClose is returned by Dispatch when the offense requires closing the
// connection (unknown opcode, phase violation, malformed payload).
type ErrClose struct {
	Opcode uint16
	Reason string
}

func (e *ErrClose) Error() string {
	return fmt.Sprintf("opcode 0x%04X: %s", e.Opcode, e.Reason)
}

// Registry maps opcodes to handlers with state-based access control.
type Registry struct {
	handlers map[uint16]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given session states.
func (reg *Registry) Register(opcode uint16, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Handles reports whether an opcode has a registered handler.
func (reg *Registry) Handles(opcode uint16) bool {
	_, ok := reg.handlers[opcode]
	return ok
}

// Dispatch finds the handler for the opcode in data[0:2], validates the
// session state, and calls the handler. An unknown opcode or a wrong-phase
// packet is a protocol violation: the caller closes the connection.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) < 2 {
		return &ErrClose{Reason: "short packet"}
	}
	opcode := binary.LittleEndian.Uint16(data)
	reg.log.Debug("收到封包",
		zap.Uint16("opcode", opcode),
		zap.Int("size", len(data)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Warn("未知操作碼",
			zap.Uint16("opcode", opcode),
			zap.String("state", state.String()),
			zap.Binary("head", head(data, 16)),
		)
		return &ErrClose{Opcode: opcode, Reason: "unknown opcode"}
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("操作碼在此狀態下不允許",
			zap.Uint16("opcode", opcode),
			zap.String("state", state.String()),
		)
		return &ErrClose{Opcode: opcode, Reason: "opcode not allowed in state " + state.String()}
	}

	return reg.safeCall(entry.fn, sess, NewReader(data), opcode)
}

// safeCall executes a handler with panic recovery so one bad packet cannot
// take down the owning goroutine. The packet is dropped, the session lives.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode uint16) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.Uint16("opcode", opcode),
				zap.Any("panic", rec),
			)
		}
	}()
	fn(sess, r)
	return nil
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		n = len(data)
	}
	return data[:n]
}
