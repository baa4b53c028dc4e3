package realtime

import (
	"context"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"
)

type frameReader interface {
	ReadMessage() (messageType int, data []byte, err error)
}

// RateConfig bounds inbound frames per connection. A zero Limit disables limiting.
type RateConfig struct {
	Limit rate.Limit
	Burst int
}

// Gateway accepts websocket connections and runs their read loops.
type Gateway struct {
	ctx      context.Context
	registry *Registry
	monitor  *Monitor
	handler  *Handler
	rate     RateConfig
	logger   types.Logger
}

// NewGateway creates a gateway. Commands run with ctx.
func NewGateway(ctx context.Context, registry *Registry, monitor *Monitor, handler *Handler, rateConfig RateConfig, logger types.Logger) *Gateway {
	return &Gateway{
		ctx:      ctx,
		registry: registry,
		monitor:  monitor,
		handler:  handler,
		rate:     rateConfig,
		logger:   logger,
	}
}

// HandleWebSocket is the Fiber websocket handler for /ws.
func (g *Gateway) HandleWebSocket(c *websocket.Conn) {
	conn := g.Accept(c)
	c.SetPongHandler(func(string) error {
		conn.MarkAlive()
		return nil
	})
	g.serve(conn, c)
}

// Accept wraps a new transport, starts watching it and greets the client.
func (g *Gateway) Accept(t Transport) *Connection {
	var limiter *rate.Limiter
	if g.rate.Limit > 0 {
		limiter = rate.NewLimiter(g.rate.Limit, g.rate.Burst)
	}

	conn := NewConnection(t, limiter)
	g.monitor.Track(conn)
	g.logger.Info("Client connected", "connection", conn.ID())

	if err := conn.Send(NewWelcomeFrame(time.Now())); err != nil {
		g.logger.Debug("Failed to send welcome", "connection", conn.ID(), "error", err)
	}
	return conn
}

// serve handles frames in arrival order until the transport fails.
func (g *Gateway) serve(conn *Connection, r frameReader) {
	defer g.release(conn)

	for {
		_, data, err := r.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn("Read error", "connection", conn.ID(), "error", err)
			}
			return
		}
		g.handler.Handle(g.ctx, conn, data)
	}
}

func (g *Gateway) release(conn *Connection) {
	g.registry.Unregister(conn)
	g.monitor.Untrack(conn)
	_ = conn.Close()

	if userID, ok := conn.UserID(); ok {
		g.logger.Info("User disconnected", "userID", userID, "uuid", conn.DeviceID(), "connection", conn.ID())
		return
	}
	g.logger.Info("Client disconnected", "connection", conn.ID())
}

// CloseAll closes every tracked connection.
func (g *Gateway) CloseAll() int {
	conns := g.monitor.Connections()
	for _, conn := range conns {
		g.registry.Unregister(conn)
		g.monitor.Untrack(conn)
		_ = conn.Close()
	}
	return len(conns)
}
