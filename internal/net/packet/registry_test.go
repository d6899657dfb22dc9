package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatchCallsHandler(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	var gotValue uint32
	reg.Register(C_OPCODE_CAST_SPELL, []SessionState{StateInWorld},
		func(sess any, r *Reader) {
			gotValue = r.ReadD()
		})

	w := NewWriterWithOpcode(C_OPCODE_CAST_SPELL)
	w.WriteD(55665)

	require.NoError(t, reg.Dispatch(nil, StateInWorld, w.Bytes()))
	assert.Equal(t, uint32(55665), gotValue)
}

func TestDispatchUnknownOpcode(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	w := NewWriterWithOpcode(0x7777)
	err := reg.Dispatch(nil, StateInWorld, w.Bytes())
	require.Error(t, err)

	var closeErr *ErrClose
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, uint16(0x7777), closeErr.Opcode)
}

func TestDispatchWrongState(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_OPCODE_MOVEMENT, []SessionState{StateInWorld},
		func(sess any, r *Reader) {
			t.Fatal("handler must not run in the wrong state")
		})

	w := NewWriterWithOpcode(C_OPCODE_MOVEMENT)
	err := reg.Dispatch(nil, StateHandshake, w.Bytes())
	assert.Error(t, err)
}

func TestDispatchShortPacket(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.Error(t, reg.Dispatch(nil, StateInWorld, []byte{0x01}))
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_OPCODE_CHAT, []SessionState{StateInWorld},
		func(sess any, r *Reader) {
			panic("bad packet")
		})

	w := NewWriterWithOpcode(C_OPCODE_CHAT)
	// The packet is dropped, the connection survives.
	assert.NoError(t, reg.Dispatch(nil, StateInWorld, w.Bytes()))
}

func TestHandles(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.False(t, reg.Handles(C_OPCODE_KEEP_ALIVE))
	reg.Register(C_OPCODE_KEEP_ALIVE, []SessionState{StateInWorld}, func(any, *Reader) {})
	assert.True(t, reg.Handles(C_OPCODE_KEEP_ALIVE))
}
