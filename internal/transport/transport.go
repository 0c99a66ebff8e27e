// Package transport carries protocol messages over a persistent WebSocket
// link. Two roles exist: a listener that accepts the counterpart's connection
// and a connector that dials out to it. Both maintain at most one session at
// a time and hand inbound messages to an attached MessageSink.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Send channel buffer size
	sendBufferSize = 256
)

// ErrNoSession is returned by Send when no counterpart is connected.
var ErrNoSession = errors.New("transport: no active session")

// MessageSink consumes inbound traffic and session lifecycle events. All
// callbacks run on the session's read goroutine.
type MessageSink interface {
	HandleMessage(msg protocol.Message)
	SessionOpened(id string)
	SessionClosed(id string)
}

// Transport is the role-agnostic link the engine drives. Attach may be
// called at most once, after the engine is ready to receive; messages
// arriving before attachment are dropped.
type Transport interface {
	Attach(sink MessageSink)
	Run(ctx context.Context) error
	Ready() <-chan struct{}
	Send(msg protocol.Message) error
}

var knownTypes = map[protocol.MessageType]bool{
	protocol.MessageTypeDIO:           true,
	protocol.MessageTypeAnalogIn:      true,
	protocol.MessageTypeAnalogOut:     true,
	protocol.MessageTypePWM:           true,
	protocol.MessageTypeEncoder:       true,
	protocol.MessageTypeDriverStation: true,
	protocol.MessageTypeRoboRIO:       true,
	protocol.MessageTypeSimDevice:     true,
	protocol.MessageTypeAccel:         true,
	protocol.MessageTypeGyro:          true,
}

// session wraps one live WebSocket connection with its read/write pumps.
type session struct {
	id     string
	conn   *websocket.Conn
	send   chan protocol.Message
	logger *zap.Logger
	done   chan struct{}
}

func newSession(id string, conn *websocket.Conn, logger *zap.Logger) *session {
	return &session{
		id:     id,
		conn:   conn,
		send:   make(chan protocol.Message, sendBufferSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// readPump decodes envelopes and forwards them to the sink until the
// connection drops. It blocks the caller.
func (s *session) readPump(sink func() MessageSink) {
	defer close(s.done)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket read error",
					zap.String("session", s.id),
					zap.Error(err))
			}
			return
		}

		if !knownTypes[msg.Type] {
			s.logger.Debug("Dropping message with unknown type",
				zap.String("session", s.id),
				zap.String("type", string(msg.Type)))
			continue
		}

		if dst := sink(); dst != nil {
			dst.HandleMessage(msg)
		}
	}
}

// writePump serializes outbound messages and keepalive pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Warn("WebSocket write error",
					zap.String("session", s.id),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *session) enqueue(msg protocol.Message, logger *zap.Logger) error {
	select {
	case s.send <- msg:
		return nil
	default:
		logger.Warn("Session send buffer full, message dropped",
			zap.String("session", s.id),
			zap.String("type", string(msg.Type)))
		return nil
	}
}
