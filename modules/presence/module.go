package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/redis/go-redis/v9"
)

const (
	// ServicePresenceStatus answers which of a set of users are online.
	ServicePresenceStatus = "presence-status"

	hookTimeout = 2 * time.Second
)

// StatusRequest asks for the presence of users.
type StatusRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

// StatusResponse maps decimal user IDs to their presence.
type StatusResponse struct {
	Enabled bool            `json:"enabled"`
	Online  map[string]bool `json:"online"`
}

// Module tracks online users in Redis. With no address configured it is a no-op.
type Module struct {
	redisAddr string
	client    *redis.Client
	tracker   *Tracker
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a presence module. An empty redisAddr disables it.
func NewModule(redisAddr string) *Module {
	return &Module{redisAddr: redisAddr}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "presence"
}

// Start connects to Redis and resets the online set.
func (m *Module) Start(ctx context.Context) error {
	if m.redisAddr == "" {
		log.Println("[presence] Module started (disabled: REDIS_ADDR not set)")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	m.tracker = NewTracker(m.client, DefaultKey)
	// Connections do not survive a restart.
	if err := m.tracker.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset presence: %w", err)
	}

	log.Printf("[presence] Module started (redis: %s)", m.redisAddr)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	log.Println("[presence] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.tracker == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}

	count, err := m.tracker.OnlineCount(ctx)
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis unavailable: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online_users": count,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServicePresenceStatus,
		json.Unmarshal,
		json.Marshal,
		m.handleStatus,
	); err != nil {
		return fmt.Errorf("failed to register presence-status service: %w", err)
	}
	return nil
}

func (m *Module) handleStatus(ctx context.Context, req StatusRequest, _ *mono.Msg) (StatusResponse, error) {
	resp := StatusResponse{
		Enabled: m.tracker != nil,
		Online:  make(map[string]bool, len(req.UserIDs)),
	}
	if m.tracker == nil {
		return resp, nil
	}

	status, err := m.tracker.OnlineStatus(ctx, req.UserIDs)
	if err != nil {
		return StatusResponse{}, err
	}
	for id, online := range status {
		resp.Online[fmt.Sprint(id)] = online
	}
	return resp, nil
}

// Online marks userID online. It is called by the connection registry.
func (m *Module) Online(userID int64) {
	if m.tracker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := m.tracker.SetOnline(ctx, userID); err != nil {
		log.Printf("[presence] %v (user %d)", err, userID)
	}
}

// Offline marks userID offline. It is called by the connection registry.
func (m *Module) Offline(userID int64) {
	if m.tracker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	if err := m.tracker.SetOffline(ctx, userID); err != nil {
		log.Printf("[presence] %v (user %d)", err, userID)
	}
}
