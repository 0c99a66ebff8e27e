package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

const (
	dialTimeout    = 5 * time.Second
	redialInterval = 2 * time.Second
)

// Client is the connector-role transport: it dials the counterpart and keeps
// redialing whenever the session drops, until its context is cancelled.
type Client struct {
	url    string
	logger *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	sink    MessageSink
	current *session
}

// NewClient creates a connector transport for ws://host:port/path.
func NewClient(host string, port int, path string, logger *zap.Logger) *Client {
	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", host, port), Path: path}
	return &Client{
		url:    u.String(),
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Attach installs the inbound message sink.
func (c *Client) Attach(sink MessageSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Ready is closed after the first successful dial.
func (c *Client) Ready() <-chan struct{} { return c.ready }

// Run dials and serves sessions until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(redialInterval):
				continue
			}
		}

		c.readyOnce.Do(func() { close(c.ready) })
		c.serve(ctx, conn)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(redialInterval):
		}
	}
}

// Send queues an outbound message on the live session.
func (c *Client) Send(msg protocol.Message) error {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()

	if sess == nil {
		return ErrNoSession
	}
	return sess.enqueue(msg, c.logger)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		c.logger.Debug("Dial failed, will retry",
			zap.String("url", c.url),
			zap.Error(err))
		return nil, err
	}
	return conn, nil
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	sess := newSession(uuid.NewString(), conn, c.logger)

	c.mu.Lock()
	c.current = sess
	sink := c.sink
	c.mu.Unlock()

	c.logger.Info("Session opened",
		zap.String("session", sess.id),
		zap.String("url", c.url))
	if sink != nil {
		sink.SessionOpened(sess.id)
	}

	go sess.writePump()

	// Tear the session down when the context ends while reading.
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	sess.readPump(c.currentSink)
	close(stop)

	c.mu.Lock()
	c.current = nil
	sink = c.sink
	c.mu.Unlock()

	c.logger.Info("Session closed", zap.String("session", sess.id))
	if sink != nil {
		sink.SessionClosed(sess.id)
	}
}

func (c *Client) currentSink() MessageSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}
