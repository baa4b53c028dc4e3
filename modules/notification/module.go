package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/events"
	"github.com/example/realestate-chat/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ServiceListNotifications returns the latest notifications of a user.
const ServiceListNotifications = "list-notifications"

// Listing limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
	previewRunes = 80
)

// Store is the persistence the notification module needs.
type Store interface {
	CreateNotifications(ctx context.Context, notifications []chat.Notification) error
	NotificationsFor(ctx context.Context, userID int64, limit int) ([]chat.Notification, error)
}

// ListRequest asks for a user's notifications.
type ListRequest struct {
	UserID int64 `json:"user_id,string"`
	Limit  int   `json:"limit"`
}

// ListResponse holds notifications, newest first.
type ListResponse struct {
	Notifications []View `json:"notifications"`
}

// View is the client view of a notification.
type View struct {
	NotificationID int64     `json:"notificationId,string"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	RefID          int64     `json:"refId,string"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Module turns chat events into stored in-app notifications.
type Module struct {
	storeModule *store.Module
	store       Store
	logger      types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the notification module.
func NewModule(storeModule *store.Module, logger types.Logger) *Module {
	return &Module{
		storeModule: storeModule,
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notification"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer is a no-op; the store is reached through the module handle.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// RegisterEventConsumers subscribes to chat events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.MessageSentV1, m.handleMessageSent, m); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.RoomCreatedV1, m.handleRoomCreated, m); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"MessageSent", "RoomCreated"})
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListNotifications, json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListNotifications, err)
	}
	return nil
}

// Start binds the module to the repository.
func (m *Module) Start(_ context.Context) error {
	repo := m.storeModule.Repository()
	if repo == nil {
		return fmt.Errorf("store module is not started")
	}
	m.store = repo
	m.logger.Info("Module started - listening for chat events")
	return nil
}

// Stop is a no-op.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.store != nil,
		Message: "operational",
	}
}

func (m *Module) handleMessageSent(ctx context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	title := fmt.Sprintf("New message from %s", event.SenderName)
	body := preview(event.Content)
	if event.MessageType != string(chat.MessageTypeText) {
		body = fmt.Sprintf("[%s]", event.MessageType)
	}

	batch := make([]chat.Notification, 0, len(event.RecipientIDs))
	for _, id := range event.RecipientIDs {
		if id == event.SenderID {
			continue
		}
		batch = append(batch, chat.Notification{
			UserID:    id,
			Type:      chat.NotificationChatMessage,
			Title:     title,
			Body:      body,
			RefID:     event.RoomID,
			CreatedAt: event.Timestamp,
		})
	}
	if err := m.store.CreateNotifications(ctx, batch); err != nil {
		return err
	}

	m.logger.Debug("Message notifications stored",
		"roomID", event.RoomID,
		"messageID", event.MessageID,
		"count", len(batch))
	return nil
}

func (m *Module) handleRoomCreated(ctx context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	batch := make([]chat.Notification, 0, len(event.MemberIDs))
	for _, id := range event.MemberIDs {
		if id == event.CreatedBy {
			continue
		}
		batch = append(batch, chat.Notification{
			UserID:    id,
			Type:      chat.NotificationRoomInvite,
			Title:     "You were added to a conversation",
			RefID:     event.RoomID,
			CreatedAt: event.Timestamp,
		})
	}
	if err := m.store.CreateNotifications(ctx, batch); err != nil {
		return err
	}

	m.logger.Debug("Room invitations stored", "roomID", event.RoomID, "count", len(batch))
	return nil
}

func (m *Module) handleList(ctx context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	notifications, err := m.store.NotificationsFor(ctx, req.UserID, limit)
	if err != nil {
		return ListResponse{}, err
	}

	resp := ListResponse{Notifications: make([]View, 0, len(notifications))}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, View{
			NotificationID: n.NotificationID,
			Type:           n.Type,
			Title:          n.Title,
			Body:           n.Body,
			RefID:          n.RefID,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	return resp, nil
}

// preview cuts content to a notification-sized body.
func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes]) + "..."
}
