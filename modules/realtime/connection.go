package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const writeWait = 10 * time.Second

// ErrConnectionClosed is returned when writing to a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Transport is the write side of a websocket.
// *websocket.Conn from gofiber/contrib satisfies it.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection is one live client session.
type Connection struct {
	id          string
	transport   Transport
	limiter     *rate.Limiter
	connectedAt time.Time

	writeMu sync.Mutex
	closed  atomic.Bool
	alive   atomic.Bool

	mu            sync.RWMutex
	userID        int64
	deviceID      string
	authenticated bool
}

// NewConnection wraps a transport. A nil limiter disables inbound rate limiting.
func NewConnection(transport Transport, limiter *rate.Limiter) *Connection {
	c := &Connection{
		id:          uuid.New().String(),
		transport:   transport,
		limiter:     limiter,
		connectedAt: time.Now(),
	}
	c.alive.Store(true)
	return c
}

// ID returns the runtime handle of the connection.
func (c *Connection) ID() string {
	return c.id
}

// ConnectedAt returns the time the connection was accepted.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// UserID returns the authenticated user, if any.
func (c *Connection) UserID() (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.authenticated
}

// DeviceID returns the client supplied device identifier.
func (c *Connection) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceID
}

// Authenticated reports whether a login succeeded on this connection.
func (c *Connection) Authenticated() bool {
	_, ok := c.UserID()
	return ok
}

// authenticate attaches the identity once. It returns false if one is already attached.
func (c *Connection) authenticate(userID int64, deviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return false
	}
	c.userID = userID
	c.deviceID = deviceID
	c.authenticated = true
	return true
}

// MarkAlive records a liveness acknowledgment.
func (c *Connection) MarkAlive() {
	c.alive.Store(true)
}

// IsAlive reports the liveness flag.
func (c *Connection) IsAlive() bool {
	return c.alive.Load()
}

// Send marshals v as JSON and writes it as a text frame.
func (c *Connection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw writes a text frame. Writes are serialized per connection and
// abandoned after writeWait so a stalled peer cannot hold the caller.
func (c *Connection) SendRaw(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if err := c.transport.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.transport.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a ping control frame.
func (c *Connection) Ping() error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return c.transport.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close closes the transport. Only the first call has an effect. It returns
// once no write is in flight, so the transport is safe to release afterwards.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.transport.Close()

	// A writer that passed the closed check before the flip still holds writeMu.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return err
}

// IsOpen reports whether the connection has not been closed.
func (c *Connection) IsOpen() bool {
	return !c.closed.Load()
}

// Allow consumes one token from the inbound rate limiter.
func (c *Connection) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}
