package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/example/realestate-chat/events"
	"github.com/example/realestate-chat/modules/auth"
	"github.com/example/realestate-chat/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/time/rate"
)

// DefaultStatsInterval is the time between two connection stats lines.
const DefaultStatsInterval = 60 * time.Second

// Config holds the realtime settings.
type Config struct {
	HeartbeatInterval time.Duration
	StatsInterval     time.Duration
	RateLimit         float64
	RateBurst         int
}

// Module runs the websocket command protocol.
type Module struct {
	config      Config
	storeModule *store.Module
	verifier    TokenVerifier
	registry    *Registry
	monitor     *Monitor
	gateway     *Gateway
	eventBus    mono.EventBus
	logger      types.Logger

	cancel    context.CancelFunc
	stopStats chan struct{}
	statsDone chan struct{}
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the realtime module. tracker may be nil.
func NewModule(config Config, storeModule *store.Module, tracker PresenceTracker, logger types.Logger) *Module {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = DefaultStatsInterval
	}
	return &Module{
		config:      config,
		storeModule: storeModule,
		registry:    NewRegistry(tracker),
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "realtime"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"store", "auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.verifier = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// PublishMessageSent publishes a MessageSent event.
func (m *Module) PublishMessageSent(evt events.MessageSentEvent) error {
	if m.eventBus == nil {
		return nil
	}
	return events.MessageSentV1.Publish(m.eventBus, evt, nil)
}

// Start wires the handlers and starts the heartbeat and stats loops.
func (m *Module) Start(_ context.Context) error {
	repo := m.storeModule.Repository()
	if repo == nil {
		return fmt.Errorf("store repository not initialized")
	}
	if m.verifier == nil {
		return fmt.Errorf("auth dependency not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	handler := NewHandler(m.registry, repo, m.verifier, m, m.logger)
	m.monitor = NewMonitor(m.config.HeartbeatInterval, m.logger, m.registry.Unregister)
	m.gateway = NewGateway(ctx, m.registry, m.monitor, handler, RateConfig{
		Limit: rate.Limit(m.config.RateLimit),
		Burst: m.config.RateBurst,
	}, m.logger)

	m.monitor.Start()
	m.stopStats = make(chan struct{})
	m.statsDone = make(chan struct{})
	go m.runStats()

	m.logger.Info("Realtime module started",
		"heartbeat", m.config.HeartbeatInterval.String(),
		"stats", m.config.StatsInterval.String())
	return nil
}

// Stop halts the loops and closes every open connection.
func (m *Module) Stop(_ context.Context) error {
	if m.gateway == nil {
		return nil
	}

	close(m.stopStats)
	<-m.statsDone
	m.monitor.Stop()
	closed := m.gateway.CloseAll()
	m.cancel()

	m.logger.Info("Realtime module stopped", "closedConnections", closed)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	users, registered := m.registry.Stats()
	total := 0
	if m.monitor != nil {
		total = m.monitor.Count()
	}
	return mono.HealthStatus{
		Healthy: m.gateway != nil,
		Message: "operational",
		Details: map[string]any{
			"active_users":              users,
			"authenticated_connections": registered,
			"total_connections":         total,
		},
	}
}

// Gateway returns the websocket gateway. It is nil until Start has run.
func (m *Module) Gateway() *Gateway {
	return m.gateway
}

// Registry returns the connection registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

func (m *Module) runStats() {
	defer close(m.statsDone)

	ticker := time.NewTicker(m.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopStats:
			return
		case <-ticker.C:
			users, _ := m.registry.Stats()
			m.logger.Info(fmt.Sprintf("Active users: %d, Total connections: %d", users, m.monitor.Count()))
		}
	}
}
