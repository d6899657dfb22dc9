package handler

import (
	stdnet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonet "github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"github.com/wsgo/server/internal/world"
	"go.uber.org/zap"
)

// newPipeSession builds an unstarted session whose OutQueue the test drains
// directly.
func newPipeSession(t *testing.T, name string) *gonet.Session {
	t.Helper()
	client, server := stdnet.Pipe()
	t.Cleanup(func() { client.Close() })
	sess := gonet.NewSession(server, 1, 64, 0, time.Second, zap.NewNop())
	sess.SetIdentity(func(id *gonet.Identity) { id.CharacterName = name })
	return sess
}

func whisperPacket(target, msg string) *packet.Reader {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAT)
	w.WriteC(packet.ChatWhisper)
	w.WriteWS(target)
	w.WriteWS(msg)
	return packet.NewReader(w.Bytes())
}

func readChat(t *testing.T, sess *gonet.Session) (uint8, string, string) {
	t.Helper()
	select {
	case pkt := <-sess.OutQueue:
		r := packet.NewReader(pkt)
		require.Equal(t, packet.S_OPCODE_CHAT, r.Opcode())
		return r.ReadC(), r.ReadWS(), r.ReadWS()
	default:
		t.Fatal("no packet queued")
		return 0, "", ""
	}
}

func TestWhisperToOfflinePlayer(t *testing.T) {
	deps := &Deps{Directory: world.NewDirectory(), Log: zap.NewNop()}
	alice := newPipeSession(t, "Alice")

	HandleChat(alice, whisperPacket("carol", "are you there"), deps)

	// The sender gets the failure notice on their own queue.
	channel, from, msg := readChat(t, alice)
	assert.Equal(t, packet.ChatWhisper, channel)
	assert.Equal(t, "", from)
	assert.Equal(t, "player offline", msg)
}

func TestWhisperDelivers(t *testing.T) {
	deps := &Deps{Directory: world.NewDirectory(), Log: zap.NewNop()}
	alice := newPipeSession(t, "Alice")
	bob := newPipeSession(t, "Bob")
	deps.Directory.Bind(7, bob)
	deps.Directory.BindName("Bob", 7)

	// Name lookup is case-insensitive.
	HandleChat(alice, whisperPacket("bOB", "hi"), deps)

	channel, from, msg := readChat(t, bob)
	assert.Equal(t, packet.ChatWhisper, channel)
	assert.Equal(t, "Alice", from)
	assert.Equal(t, "hi", msg)
	assert.Empty(t, alice.OutQueue)
}

func TestEmptyMessageDropped(t *testing.T) {
	deps := &Deps{Directory: world.NewDirectory(), Log: zap.NewNop()}
	alice := newPipeSession(t, "Alice")

	HandleChat(alice, whisperPacket("bob", ""), deps)
	assert.Empty(t, alice.OutQueue)
}

func TestGlobalChatReachesEveryone(t *testing.T) {
	deps := &Deps{Directory: world.NewDirectory(), Log: zap.NewNop()}
	alice := newPipeSession(t, "Alice")
	bob := newPipeSession(t, "Bob")
	deps.Directory.Bind(1, alice)
	deps.Directory.Bind(2, bob)

	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAT)
	w.WriteC(packet.ChatGlobal)
	w.WriteWS("")
	w.WriteWS("server restarting soon")
	HandleChat(alice, packet.NewReader(w.Bytes()), deps)

	_, _, msg := readChat(t, alice)
	assert.Equal(t, "server restarting soon", msg)
	_, from, msg := readChat(t, bob)
	assert.Equal(t, "Alice", from)
	assert.Equal(t, "server restarting soon", msg)
}
