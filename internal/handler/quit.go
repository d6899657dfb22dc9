package handler

import (
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
)

// HandleKeepAlive intentionally does nothing beyond consuming the packet.
// Its arrival already reset the connection's read as far as the client is
// concerned; a dead peer simply stops sending them and the socket read
// eventually fails.
func HandleKeepAlive(sess *net.Session, r *packet.Reader, deps *Deps) {
	_ = r.ReadD() // client uptime ms, unused
}
