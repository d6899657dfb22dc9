package handler

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/wsgo/server/internal/auth"
	"github.com/wsgo/server/internal/net"
	"github.com/wsgo/server/internal/net/packet"
	"go.uber.org/zap"
)

const dbTimeout = 5 * time.Second

// authFail sends a taxonomised failure and closes the connection.
func authFail(sess *net.Session, reason byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_AUTH_FAIL)
	w.WriteC(reason)
	sess.Send(w.Bytes())
	sess.Close()
}

// HandleHelloAuth starts the auth-realm handshake: validate the client
// build, install the build-derived cipher key, and issue the SRP challenge.
func HandleHelloAuth(sess *net.Session, r *packet.Reader, deps *Deps) {
	build := r.ReadD()
	email := r.ReadWS()
	if r.Overrun() {
		deps.Log.Warn("HelloAuth 封包長度不符", zap.Uint64("session", sess.ID))
		sess.Close()
		return
	}

	if build != deps.Config.Server.Build {
		deps.Log.Info("客戶端版本不符",
			zap.Uint32("got", build), zap.Uint32("want", deps.Config.Server.Build))
		authFail(sess, packet.AuthFailBadBuild)
		return
	}

	// Everything after the hello rides the build-derived auth key.
	sess.InstallKey(auth.DeriveAuthKey(build))

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	acct, err := deps.AccountRepo.ByEmail(ctx, email)
	if err != nil {
		deps.Log.Error("帳號查詢失敗", zap.Error(err))
		authFail(sess, packet.AuthFailUnknownAccount)
		return
	}
	if acct == nil {
		authFail(sess, packet.AuthFailUnknownAccount)
		return
	}
	if acct.Banned {
		authFail(sess, packet.AuthFailBanned)
		return
	}

	srp, err := auth.NewServerSession(acct.Salt, acct.Verifier)
	if err != nil {
		deps.Log.Error("SRP 初始化失敗", zap.Error(err))
		sess.Close()
		return
	}
	sess.SRP = srp
	sess.SetIdentity(func(id *net.Identity) {
		id.AccountID = acct.AccountID
		id.AccountEmail = acct.Email
	})

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHALLENGE)
	w.WriteBytes(srp.Salt())
	w.WriteBytes(srp.PublicB())
	sess.Send(w.Bytes())
	sess.SetState(packet.StateAuthChallenged)
}

// HandleProof verifies the client's SRP proof. On success the session key is
// parked for the world-realm hello, in memory and in the store.
func HandleProof(sess *net.Session, r *packet.Reader, deps *Deps) {
	a := r.ReadBytes(128)
	m1 := r.ReadBytes(32)
	if r.Overrun() || sess.SRP == nil {
		sess.Close()
		return
	}

	accountID := sess.Identity().AccountID
	sessionKey, m2, ok := sess.SRP.VerifyProof(a, m1)
	sess.SRP = nil
	if !ok {
		deps.Log.Info("SRP 證明驗證失敗",
			zap.Uint64("account", accountID), zap.String("ip", sess.IP))
		authFail(sess, packet.AuthFailBadProof)
		return
	}

	var key [16]byte
	copy(key[:], sessionKey)
	authSess := deps.Sessions.Put(accountID, key)

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := deps.AccountRepo.StoreSessionKey(ctx, accountID, sessionKey, authSess.ExpiresAt); err != nil {
		// The in-memory session still works for this process lifetime.
		deps.Log.Warn("會話金鑰入庫失敗", zap.Error(err))
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PROOF)
	w.WriteBytes(m2)
	sess.Send(w.Bytes())
	sess.SetState(packet.StateAuthDone)
	deps.Log.Info("帳號認證成功", zap.Uint64("account", accountID))
}

// HandleHelloWorld redeems an auth session on the world realm. The token is
// single-use; the world cipher key replaces whatever key the connection had.
func HandleHelloWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountID := r.ReadQ()
	token := r.ReadBytes(16)
	if r.Overrun() {
		sess.Close()
		return
	}

	authSess, ok := deps.Sessions.Redeem(accountID, token)
	if !ok {
		// In-memory miss: the auth handshake may have happened before a
		// restart. Fall back to the stored key, same expiry rules.
		authSess = redeemStored(accountID, token, deps)
	}
	if authSess == nil {
		authFail(sess, packet.AuthFailSessionExpired)
		return
	}

	// Duplicate login is an authentication failure: the account's live
	// session stays, the newcomer is refused.
	if prev := deps.Directory.SessionFor(accountID); prev != nil && !prev.IsClosed() {
		deps.Log.Info("重複登入，拒絕新連線", zap.Uint64("account", accountID))
		authFail(sess, packet.AuthFailDuplicate)
		return
	}

	sess.SetIdentity(func(id *net.Identity) { id.AccountID = accountID })
	sess.InstallKey(auth.DeriveWorldKey(authSess.SessionKey[:]))

	if prev := deps.Directory.Bind(accountID, sess); prev != nil {
		// A closed leftover that never unbound; finish its teardown.
		prev.Close()
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_WELCOME)
	w.WriteQ(accountID)
	w.WriteWS(deps.Config.Server.Name)
	sess.Send(w.Bytes())
	sess.SetState(packet.StateCharacterSelect)
}

func redeemStored(accountID uint64, token []byte, deps *Deps) *auth.Session {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	key, expiresAt, err := deps.AccountRepo.FetchSession(ctx, accountID)
	if err != nil || key == nil {
		return nil
	}
	if time.Now().After(expiresAt) {
		return nil
	}
	if len(key) != 16 || subtle.ConstantTimeCompare(key, token) != 1 {
		return nil
	}
	// Consume it: stored keys are single-use too.
	if err := deps.AccountRepo.DeleteSession(ctx, accountID); err != nil {
		deps.Log.Warn("會話金鑰刪除失敗", zap.Error(err))
	}
	s := &auth.Session{AccountID: accountID, ExpiresAt: expiresAt}
	copy(s.SessionKey[:], key)
	return s
}
