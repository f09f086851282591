// Package channel owns the single authenticated duplex connection to the
// chat backend: it dials, reconnects with capped exponential backoff, fans
// inbound frames onto the internal bus, and accepts outbound emits.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/talkio/realtime-client/internal/domain/model"
	"github.com/talkio/realtime-client/internal/metrics"
)

var (
	// ErrNotConnected reports an emit while the channel is down. Not a
	// failure for callers that queue (the outbox treats it as "enqueue").
	ErrNotConnected = errors.New("channel: not connected")

	// ErrWriteBufferFull reports a saturated outbound buffer.
	ErrWriteBufferFull = errors.New("channel: write buffer full")
)

const writeBufferSize = 256

// Config carries the transport knobs; defaults mirror config package.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	BackoffFloor     time.Duration
	BackoffCap       time.Duration
	MaxAttempts      int
	WriteTimeout     time.Duration
}

// Channeler is the transport contract consumed by the outbox, the presence
// relay and the service facade.
type Channeler interface {
	Connect(ctx context.Context, token, userID string) error
	Disconnect()
	Emit(event string, payload any) error
	Connected() bool
	Registry() *Registry
	Stats() model.ChannelStats
}

type Channel struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	pub      message.Publisher
	metrics  *metrics.Set
	dialer   *websocket.Dialer
	backoff  *Backoff

	mu      sync.Mutex
	state   model.ConnState
	conn    *websocket.Conn
	connID  string
	writeCh chan *model.Frame
	stopCh  chan struct{}
}

var _ Channeler = (*Channel)(nil)

func New(cfg Config, pub message.Publisher, logger *slog.Logger, m *metrics.Set) *Channel {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Channel{
		cfg:      cfg,
		logger:   logger,
		registry: NewRegistry(logger),
		pub:      pub,
		metrics:  m,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		backoff: NewBackoff(cfg.BackoffFloor, cfg.BackoffCap),
		state:   model.StateDisconnected,
	}
}

func (c *Channel) Registry() *Registry { return c.registry }

// Connect starts the connection supervisor. Idempotent: a second call while
// connecting or connected is a no-op. Connection failures never surface as
// errors here; they arrive as a local "disconnected" event after the retry
// budget is exhausted.
func (c *Channel) Connect(ctx context.Context, token, userID string) error {
	if token == "" || userID == "" {
		return fmt.Errorf("channel: connect requires token and user id")
	}

	c.mu.Lock()
	if c.state != model.StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = model.StateConnecting
	stop := make(chan struct{})
	c.stopCh = stop
	c.mu.Unlock()

	go c.run(ctx, token, userID, stop)
	return nil
}

// Disconnect tears the connection down, clears every subscriber
// registration and leaves the channel reconnect loop stopped. Safe to call
// when already disconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	stop := c.stopCh
	conn := c.conn
	c.stopCh = nil
	c.conn = nil
	c.connID = ""
	c.writeCh = nil
	c.state = model.StateDisconnected
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.registry.Clear()
	c.backoff.Reset()
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == model.StateConnected
}

// Emit sends immediately if connected. The channel never buffers
// application messages across disconnects; queueing is the outbox's job.
func (c *Channel) Emit(event string, payload any) error {
	frame, err := model.NewFrame(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	ch := c.writeCh
	connected := c.state == model.StateConnected
	c.mu.Unlock()

	if !connected || ch == nil {
		return ErrNotConnected
	}
	select {
	case ch <- frame:
		c.metrics.FramesOut.Inc()
		return nil
	default:
		return ErrWriteBufferFull
	}
}

func (c *Channel) Stats() model.ChannelStats {
	c.mu.Lock()
	state := c.state
	connID := c.connID
	c.mu.Unlock()
	return model.ChannelStats{
		State:         state.String(),
		ConnectionID:  connID,
		Attempts:      c.backoff.Attempts(),
		BackoffMillis: c.backoff.Current().Milliseconds(),
		Subscribers:   c.registry.Len(),
	}
}

// run is the connection supervisor: dial, pump, back off, repeat. It exits
// on explicit disconnect, context cancellation, or an exhausted retry
// budget for a single outage.
func (c *Channel) run(ctx context.Context, token, userID string, stop <-chan struct{}) {
	for {
		conn, err := c.dial(ctx, token, userID)
		if err != nil {
			c.metrics.ConnectFailures.Inc()
			delay := c.backoff.Next()
			if c.backoff.Attempts() >= c.cfg.MaxAttempts {
				c.logger.Warn("connection attempts exhausted",
					"attempts", c.backoff.Attempts(), "error", err)
				c.giveUp(stop, fmt.Sprintf("connect failed after %d attempts: %v", c.cfg.MaxAttempts, err))
				return
			}
			c.logger.Debug("connect attempt failed",
				"attempt", c.backoff.Attempts(), "retry_in", delay, "error", err)
			select {
			case <-stop:
				return
			case <-ctx.Done():
				c.giveUp(stop, "context canceled")
				return
			case <-time.After(delay):
				continue
			}
		}

		connID := uuid.NewString()
		writeCh := make(chan *model.Frame, writeBufferSize)

		c.mu.Lock()
		// Identity check, not a nil check: a Disconnect followed by a fresh
		// Connect installs a new stopCh, and this supervisor's late dial
		// must not be adopted by the new session.
		if c.stopCh != stop {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.connID = connID
		c.writeCh = writeCh
		c.state = model.StateConnected
		c.mu.Unlock()

		c.backoff.Reset()
		c.metrics.Reconnects.Inc()
		c.logger.Info("channel connected", "connection_id", connID, "user_id", userID)
		c.publishLocal(model.EventConnected, &model.ConnectedPayload{
			Ok:           true,
			ConnectionID: connID,
		})

		err = c.pump(conn, writeCh, stop)

		c.mu.Lock()
		stopped := c.stopCh != stop
		if c.conn == conn { // never clobber a newer session's connection
			c.conn = nil
			c.writeCh = nil
			c.connID = ""
		}
		if !stopped {
			c.state = model.StateConnecting
		}
		c.mu.Unlock()
		_ = conn.Close()

		if stopped {
			return
		}
		select {
		case <-stop:
			return
		default:
		}

		c.logger.Warn("channel dropped, reconnecting", "error", err)
		c.publishLocal(model.EventDisconnected, &model.DisconnectedPayload{
			Reason: fmt.Sprintf("connection lost: %v", err),
			Code:   "REMOTE",
		})
	}
}

func (c *Channel) dial(ctx context.Context, token, userID string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("X-User-ID", userID)

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	return conn, nil
}

// pump runs the writer goroutine and blocks on the read loop until the
// connection dies or the channel is stopped.
func (c *Channel) pump(conn *websocket.Conn, writeCh <-chan *model.Frame, stop <-chan struct{}) error {
	readDone := make(chan struct{})

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-readDone:
				return
			case frame := <-writeCh:
				data, err := json.Marshal(frame)
				if err != nil {
					c.logger.Error("outbound frame marshal failed", "event", frame.Event, "error", err)
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					c.logger.Warn("channel write failed", "event", frame.Event, "error", err)
					_ = conn.Close() // unblocks the read loop
					return
				}
			}
		}
	}()

	defer close(readDone)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame model.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("inbound frame decode failed", "error", err)
			continue
		}
		if frame.Event == "" {
			continue
		}
		c.metrics.FramesIn.WithLabelValues(frame.Event).Inc()
		c.publishFrame(&frame)
	}
}

func (c *Channel) giveUp(stop <-chan struct{}, reason string) {
	c.mu.Lock()
	if c.stopCh != stop { // a newer session owns the channel now
		c.mu.Unlock()
		return
	}
	c.state = model.StateDisconnected
	c.stopCh = nil
	c.mu.Unlock()
	c.publishLocal(model.EventDisconnected, &model.DisconnectedPayload{
		Reason: reason,
		Code:   "EXHAUSTED",
	})
}

// publishLocal synthesizes a frame for a process-local event and pushes it
// through the same bus path as server frames.
func (c *Channel) publishLocal(event string, payload any) {
	frame, err := model.NewFrame(event, payload)
	if err != nil {
		c.logger.Error("local frame build failed", "event", event, "error", err)
		return
	}
	c.publishFrame(frame)
}

func (c *Channel) publishFrame(frame *model.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("frame republish marshal failed", "event", frame.Event, "error", err)
		return
	}
	msg := message.NewMessage(frame.ID, data)
	msg.Metadata.Set("event", frame.Event)
	if err := c.pub.Publish(frame.Event, msg); err != nil {
		c.logger.Error("bus publish failed", "event", frame.Event, "error", err)
	}
}
