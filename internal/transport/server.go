package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Counterpart is a local simulator; origin is not meaningful here.
		return true
	},
}

// Server is the listener-role transport: it binds an HTTP listener and
// accepts the counterpart's WebSocket upgrade on a fixed path. Only one
// session may be live at a time; a second upgrade attempt is refused.
type Server struct {
	addr   string
	path   string
	logger *zap.Logger

	ready      chan struct{}
	httpServer *http.Server

	mu      sync.Mutex
	sink    MessageSink
	current *session
}

// NewServer creates a listener transport bound to addr (host:port) serving
// upgrades on path.
func NewServer(addr, path string, logger *zap.Logger) *Server {
	return &Server{
		addr:   addr,
		path:   path,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Attach installs the inbound message sink.
func (s *Server) Attach(sink MessageSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleUpgrade)
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		<-ctx.Done()
		s.httpServer.Close()
	}()

	s.logger.Info("Transport listening",
		zap.String("address", listener.Addr().String()),
		zap.String("path", s.path))
	close(s.ready)

	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("transport server failed: %w", err)
	}
	return nil
}

// Send queues an outbound message on the live session.
func (s *Server) Send(msg protocol.Message) error {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()

	if sess == nil {
		return ErrNoSession
	}
	return sess.enqueue(msg, s.logger)
}

// Addr reports the configured listen address.
func (s *Server) Addr() string { return s.addr }

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	busy := s.current != nil
	s.mu.Unlock()

	if busy {
		s.logger.Warn("Refusing concurrent session",
			zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "session already active", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	sess := newSession(uuid.NewString(), conn, s.logger)

	s.mu.Lock()
	s.current = sess
	sink := s.sink
	s.mu.Unlock()

	s.logger.Info("Session opened",
		zap.String("session", sess.id),
		zap.String("remote_addr", conn.RemoteAddr().String()))
	if sink != nil {
		sink.SessionOpened(sess.id)
	}

	go sess.writePump()
	sess.readPump(s.currentSink)

	s.mu.Lock()
	s.current = nil
	sink = s.sink
	s.mu.Unlock()

	s.logger.Info("Session closed", zap.String("session", sess.id))
	if sink != nil {
		sink.SessionClosed(sess.id)
	}
}

func (s *Server) currentSink() MessageSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}
