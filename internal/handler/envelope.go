package handler

import (
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"go.uber.org/zap"
)

// HandleEnvelope unwraps the encrypted envelope: decrypt the body with the
// connection's current key and redispatch the inner packet through the same
// registry. An envelope before key install is a protocol violation.
func HandleEnvelope(sess *net.Session, r *packet.Reader, deps *Deps) {
	body := r.ReadBytes(r.Remaining())
	if len(body) < 2 {
		sess.Close()
		return
	}

	inner, err := sess.DecryptEnvelope(body)
	if err != nil {
		deps.Log.Warn("金鑰未安裝即收到加密封包",
			zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
		sess.Close()
		return
	}

	if err := deps.Registry.Dispatch(sess, sess.State(), inner); err != nil {
		deps.Log.Warn("內層封包協定違規", zap.Error(err))
		sess.Close()
	}
}
