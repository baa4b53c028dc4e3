package api

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/example/realestate-chat/modules/auth"
	"github.com/example/realestate-chat/modules/chat"
	"github.com/example/realestate-chat/modules/notification"
	"github.com/example/realestate-chat/modules/presence"
	"github.com/example/realestate-chat/modules/realtime"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
)

// Config holds the HTTP server settings.
type Config struct {
	Port            int
	AllowedOrigins  string
	RedisAddr       string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Module serves the REST API and the /ws endpoint.
type Module struct {
	config         Config
	realtime       *realtime.Module
	authAdapter    auth.AuthPort
	chatPort       chat.ChatPort
	presencePort   presence.PresencePort
	notifications  notification.NotificationPort
	healthChecks   map[string]mono.HealthCheckableModule
	limiterStorage *redis.Storage
	app            *fiber.App
	logger         types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the API module.
func NewModule(config Config, realtimeModule *realtime.Module, logger types.Logger) *Module {
	if config.Port == 0 {
		config.Port = 3000
	}
	if config.AllowedOrigins == "" {
		config.AllowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	if config.RateLimitMax <= 0 {
		config.RateLimitMax = 120
	}
	if config.RateLimitWindow <= 0 {
		config.RateLimitWindow = time.Minute
	}
	return &Module{
		config:       config,
		realtime:     realtimeModule,
		healthChecks: make(map[string]mono.HealthCheckableModule),
		logger:       logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"auth", "chat", "presence", "notification", "realtime"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "chat":
		m.chatPort = chat.NewChatAdapter(container)
	case "presence":
		m.presencePort = presence.NewPresenceAdapter(container)
	case "notification":
		m.notifications = notification.NewNotificationAdapter(container)
	}
}

// AddHealthCheck includes a module in GET /health.
func (m *Module) AddHealthCheck(name string, module mono.HealthCheckableModule) {
	m.healthChecks[name] = module
}

// Start builds the Fiber app and starts listening.
func (m *Module) Start(_ context.Context) error {
	if m.authAdapter == nil || m.chatPort == nil || m.presencePort == nil || m.notifications == nil {
		return fmt.Errorf("api dependencies not set")
	}
	if m.realtime.Gateway() == nil {
		return fmt.Errorf("realtime module is not started")
	}

	var storage fiber.Storage
	if m.config.RedisAddr != "" {
		host, port := parseRedisAddr(m.config.RedisAddr)
		m.limiterStorage = redis.New(redis.Config{
			Host:     host,
			Port:     port,
			PoolSize: 10,
		})
		storage = m.limiterStorage
	}

	m.app = m.newApp(storage)

	addr := fmt.Sprintf(":%d", m.config.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", addr, "websocket", "/ws")
	return nil
}

// Stop shuts down the HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if m.limiterStorage != nil {
		if err := m.limiterStorage.Close(); err != nil {
			m.logger.Warn("Failed to close limiter storage", "error", err)
		}
	}
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.config.Port,
		},
	}
}

func (m *Module) newApp(storage fiber.Storage) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Real Estate Chat",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.config.AllowedOrigins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	handlers := NewHandlers(m.authAdapter, m.chatPort, m.presencePort, m.notifications)
	m.setupRoutes(app, handlers, storage)
	return app
}

func (m *Module) setupRoutes(app *fiber.App, h *Handlers, storage fiber.Storage) {
	app.Get("/health", m.healthHandler)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		m.realtime.Gateway().HandleWebSocket(c)
	}))

	v1 := app.Group("/api/v1", RateLimitMiddleware(RateLimitConfig{
		Max:     m.config.RateLimitMax,
		Window:  m.config.RateLimitWindow,
		Storage: storage,
	}))

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/login", h.Login)

	protected := v1.Group("", AuthMiddleware(m.authAdapter))
	protected.Get("/auth/me", h.Profile)

	rooms := protected.Group("/chat")
	rooms.Post("/rooms", h.CreateRoom)
	rooms.Get("/rooms", h.ListRooms)
	rooms.Post("/direct", h.DirectRoom)
	rooms.Get("/rooms/:roomId/messages", h.History)
	rooms.Put("/rooms/:roomId/read", h.MarkRead)
	rooms.Post("/rooms/:roomId/leave", h.LeaveRoom)

	protected.Get("/notifications", h.Notifications)
	protected.Get("/presence/:userId", h.Presence)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(m.healthChecks)),
	}
	status := fiber.StatusOK
	for name, module := range m.healthChecks {
		health := module.Health(c.UserContext())
		resp.Modules[name] = ModuleHealth{
			Healthy: health.Healthy,
			Message: health.Message,
			Details: health.Details,
		}
		if !health.Healthy {
			resp.Status = "degraded"
			status = fiber.StatusServiceUnavailable
		}
	}
	return c.Status(status).JSON(resp)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// parseRedisAddr parses "host:port" into host and port.
// Returns defaults (127.0.0.1:6379) for invalid or missing values.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	if host == "" {
		host = defaultHost
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}
	return host, port
}
