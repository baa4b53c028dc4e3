package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the chat operations available to other modules.
type ChatPort interface {
	CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomResponse, error)
	DirectRoom(ctx context.Context, req *DirectRoomRequest) (*RoomResponse, error)
	ListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error)
	History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
	MarkRead(ctx context.Context, req *RoomRequest) (*MarkReadResponse, error)
	LeaveRoom(ctx context.Context, req *RoomRequest) (*LeaveRoomResponse, error)
}

// chatAdapter implements ChatPort using the service container.
type chatAdapter struct {
	container mono.ServiceContainer
}

var _ ChatPort = (*chatAdapter)(nil)

// NewChatAdapter creates a ChatPort backed by the chat module's services.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat adapter requires non-nil ServiceContainer")
	}
	return &chatAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req) (*Resp, error) {
	var resp Resp
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", service, err)
	}
	return &resp, nil
}

// CreateRoom creates a room via the create-room service.
func (a *chatAdapter) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomResponse, error) {
	return call[CreateRoomRequest, RoomResponse](ctx, a.container, ServiceCreateRoom, req)
}

// DirectRoom finds or creates a direct room via the direct-room service.
func (a *chatAdapter) DirectRoom(ctx context.Context, req *DirectRoomRequest) (*RoomResponse, error) {
	return call[DirectRoomRequest, RoomResponse](ctx, a.container, ServiceDirectRoom, req)
}

// ListRooms lists the caller's rooms via the list-rooms service.
func (a *chatAdapter) ListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error) {
	return call[ListRoomsRequest, ListRoomsResponse](ctx, a.container, ServiceListRooms, req)
}

// History reads a page of messages via the room-history service.
func (a *chatAdapter) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	return call[HistoryRequest, HistoryResponse](ctx, a.container, ServiceHistory, req)
}

// MarkRead marks a room read via the mark-read service.
func (a *chatAdapter) MarkRead(ctx context.Context, req *RoomRequest) (*MarkReadResponse, error) {
	return call[RoomRequest, MarkReadResponse](ctx, a.container, ServiceMarkRead, req)
}

// LeaveRoom leaves a room via the leave-room service.
func (a *chatAdapter) LeaveRoom(ctx context.Context, req *RoomRequest) (*LeaveRoomResponse, error) {
	return call[RoomRequest, LeaveRoomResponse](ctx, a.container, ServiceLeaveRoom, req)
}
