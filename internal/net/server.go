package net

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/wsgo/server/internal/net/packet"
	"go.uber.org/zap"
)

// Server accepts connections and turns each into a Session. It knows nothing
// about the world; the owner wires session lifecycle through OnSession.
type Server struct {
	Bind          string
	OutQueueSize  int
	PacketsPerSec int
	WriteTimeout  time.Duration

	// OnSession runs before the session's goroutines start, so the owner can
	// register the session and install its close callback.
	OnSession func(*Session)

	registry *packet.Registry
	log      *zap.Logger
	nextID   atomic.Uint64
	ln       net.Listener
}

func NewServer(bind string, reg *packet.Registry, log *zap.Logger) *Server {
	return &Server{
		Bind:          bind,
		OutQueueSize:  256,
		PacketsPerSec: 0,
		WriteTimeout:  10 * time.Second,
		registry:      reg,
		log:           log,
	}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Bind)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("開始監聽", zap.String("bind", s.Bind))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("接受連線失敗", zap.Error(err))
			continue
		}
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	id := s.nextID.Add(1)
	sess := NewSession(conn, id, s.OutQueueSize, s.PacketsPerSec, s.WriteTimeout, s.log)
	s.log.Info("新連線", zap.Uint64("session", id), zap.String("ip", sess.IP))

	if s.OnSession != nil {
		s.OnSession(sess)
	}
	sess.Start(s.registry)
}
