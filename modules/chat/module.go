package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/realestate-chat/events"
	"github.com/example/realestate-chat/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module serves chat rooms and history to the REST API.
type Module struct {
	storeModule *store.Module
	service     *Service
	eventBus    mono.EventBus
	logger      types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the chat module.
func NewModule(storeModule *store.Module, logger types.Logger) *Module {
	return &Module{
		storeModule: storeModule,
		logger:      logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer is a no-op; the store is reached through the module handle.
func (m *Module) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// SetEventBus receives the event bus.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.MemberLeftV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.handleCreateRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDirectRoom, json.Unmarshal, json.Marshal, m.handleDirectRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDirectRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceHistory, json.Unmarshal, json.Marshal, m.handleHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceHistory, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceMarkRead, json.Unmarshal, json.Marshal, m.handleMarkRead,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceMarkRead, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLeaveRoom, json.Unmarshal, json.Marshal, m.handleLeaveRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLeaveRoom, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceCreateRoom, ServiceDirectRoom, ServiceListRooms, ServiceHistory, ServiceMarkRead, ServiceLeaveRoom})
	return nil
}

// Start wires the service to the repository.
func (m *Module) Start(_ context.Context) error {
	repo := m.storeModule.Repository()
	if repo == nil {
		return fmt.Errorf("store module is not started")
	}
	m.service = NewService(repo)
	if m.eventBus == nil {
		m.logger.Warn("Event bus not set, chat events will not be published")
	}
	m.logger.Info("Module started")
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
		Healthy: m.service != nil,
		Message: "operational",
	}
}

func (m *Module) handleCreateRoom(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	room, err := m.service.CreateRoom(ctx, req.UserID, req.ListingID, req.MemberIDs)
	if err != nil {
		failure, err := toFailure(err)
		return RoomResponse{Failure: failure}, err
	}
	view := toRoomView(room)
	m.publishRoomCreated(view)
	return RoomResponse{Room: view, Created: true}, nil
}

func (m *Module) handleDirectRoom(ctx context.Context, req DirectRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	room, created, err := m.service.DirectRoom(ctx, req.UserID, req.PeerID, req.ListingID)
	if err != nil {
		failure, err := toFailure(err)
		return RoomResponse{Failure: failure}, err
	}
	view := toRoomView(room)
	if created {
		m.publishRoomCreated(view)
	}
	return RoomResponse{Room: view, Created: created}, nil
}

func (m *Module) handleListRooms(ctx context.Context, req ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	page := Page{Number: req.Page, Size: req.Limit}.normalize()
	rooms, total, err := m.service.Rooms(ctx, req.UserID, page)
	if err != nil {
		return ListRoomsResponse{}, err
	}

	resp := ListRoomsResponse{
		Rooms: make([]RoomView, 0, len(rooms)),
		Total: total,
		Page:  page.Number,
		Limit: page.Size,
	}
	for i := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomView(&rooms[i]))
	}
	return resp, nil
}

func (m *Module) handleHistory(ctx context.Context, req HistoryRequest, _ *mono.Msg) (HistoryResponse, error) {
	page := Page{Number: req.Page, Size: req.Limit}.normalize()
	messages, total, err := m.service.History(ctx, req.RoomID, req.UserID, page)
	if err != nil {
		failure, err := toFailure(err)
		return HistoryResponse{Failure: failure}, err
	}

	resp := HistoryResponse{
		Messages: make([]MessageView, 0, len(messages)),
		Total:    total,
		Page:     page.Number,
		Limit:    page.Size,
	}
	for i := range messages {
		resp.Messages = append(resp.Messages, toMessageView(&messages[i]))
	}
	return resp, nil
}

func (m *Module) handleMarkRead(ctx context.Context, req RoomRequest, _ *mono.Msg) (MarkReadResponse, error) {
	updated, err := m.service.MarkRead(ctx, req.RoomID, req.UserID)
	if err != nil {
		failure, err := toFailure(err)
		return MarkReadResponse{Failure: failure}, err
	}
	return MarkReadResponse{Updated: updated}, nil
}

func (m *Module) handleLeaveRoom(ctx context.Context, req RoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	if err := m.service.Leave(ctx, req.RoomID, req.UserID); err != nil {
		failure, err := toFailure(err)
		return LeaveRoomResponse{Failure: failure}, err
	}

	if m.eventBus != nil {
		event := events.MemberLeftEvent{
			RoomID:    req.RoomID,
			UserID:    req.UserID,
			Timestamp: time.Now(),
		}
		if err := events.MemberLeftV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish MemberLeft event", "room_id", req.RoomID, "error", err)
		}
	}
	return LeaveRoomResponse{Left: true}, nil
}

func (m *Module) publishRoomCreated(room RoomView) {
	if m.eventBus == nil {
		return
	}
	event := events.RoomCreatedEvent{
		RoomID:    room.RoomID,
		CreatedBy: room.CreatedBy,
		MemberIDs: memberIDs(room),
		Timestamp: time.Now(),
	}
	if room.ListingID != nil {
		event.ListingID = *room.ListingID
	}
	if err := events.RoomCreatedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish RoomCreated event", "room_id", room.RoomID, "error", err)
	}
}

// toFailure turns a service error into a response failure. Errors without a
// client meaning are returned as is.
func toFailure(err error) (Failure, error) {
	switch {
	case errors.Is(err, ErrInvalidMembers):
		return Failure{Code: CodeValidation, Message: err.Error()}, nil
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrRoomNotFound):
		return Failure{Code: CodeNotFound, Message: err.Error()}, nil
	case errors.Is(err, ErrNotAMember):
		return Failure{Code: CodeForbidden, Message: err.Error()}, nil
	}
	return Failure{}, err
}

func memberIDs(view RoomView) []int64 {
	ids := make([]int64, 0, len(view.Members))
	for _, member := range view.Members {
		ids = append(ids, member.UserID)
	}
	return ids
}
