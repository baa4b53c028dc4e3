package chat

import (
	"time"

	domain "github.com/example/realestate-chat/domain/chat"
)

// Service names.
const (
	ServiceCreateRoom = "create-room"
	ServiceDirectRoom = "direct-room"
	ServiceListRooms  = "list-rooms"
	ServiceHistory    = "room-history"
	ServiceMarkRead   = "mark-read"
	ServiceLeaveRoom  = "leave-room"
)

// Error codes carried in service responses.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeForbidden  = "forbidden"
)

// Failure is embedded in every response. An empty Code means success.
type Failure struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failed reports whether the service rejected the request.
func (f Failure) Failed() bool {
	return f.Code != ""
}

// CreateRoomRequest creates a room for the caller and the listed members.
type CreateRoomRequest struct {
	UserID    int64   `json:"user_id,string"`
	ListingID *int64  `json:"listing_id,omitempty"`
	MemberIDs []int64 `json:"member_ids"`
}

// DirectRoomRequest finds or creates the two-member room with a peer.
type DirectRoomRequest struct {
	UserID    int64  `json:"user_id,string"`
	PeerID    int64  `json:"peer_id,string"`
	ListingID *int64 `json:"listing_id,omitempty"`
}

// RoomResponse wraps a single room.
type RoomResponse struct {
	Failure
	Room    RoomView `json:"room"`
	Created bool     `json:"created"`
}

// ListRoomsRequest lists the caller's rooms.
type ListRoomsRequest struct {
	UserID int64 `json:"user_id,string"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
}

// ListRoomsResponse is a page of rooms.
type ListRoomsResponse struct {
	Failure
	Rooms []RoomView `json:"rooms"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// RoomRequest addresses a room on behalf of a user.
type RoomRequest struct {
	UserID int64 `json:"user_id,string"`
	RoomID int64 `json:"room_id,string"`
}

// HistoryRequest asks for a page of a room's messages.
type HistoryRequest struct {
	UserID int64 `json:"user_id,string"`
	RoomID int64 `json:"room_id,string"`
	Page   int   `json:"page"`
	Limit  int   `json:"limit"`
}

// HistoryResponse is a page of messages, oldest first.
type HistoryResponse struct {
	Failure
	Messages []MessageView `json:"messages"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

// MarkReadResponse reports how many messages were marked read.
type MarkReadResponse struct {
	Failure
	Updated int64 `json:"updated"`
}

// LeaveRoomResponse acknowledges a leave.
type LeaveRoomResponse struct {
	Failure
	Left bool `json:"left"`
}

// RoomView is the client view of a room.
type RoomView struct {
	RoomID        int64        `json:"roomId,string"`
	ListingID     *int64       `json:"listingId,omitempty"`
	ListingTitle  string       `json:"listingTitle,omitempty"`
	CreatedBy     int64        `json:"createdBy,string"`
	MembersCount  int          `json:"membersCount"`
	LastMessageID *int64       `json:"lastMessageId,omitempty"`
	LastMessageAt *time.Time   `json:"lastMessageAt,omitempty"`
	Members       []MemberView `json:"members"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// MemberView is the client view of a membership.
type MemberView struct {
	UserID int64  `json:"userId,string"`
	Status string `json:"status"`
}

// MessageView is the client view of a stored message.
type MessageView struct {
	MessageID   int64     `json:"messageId,string"`
	RoomID      int64     `json:"roomId,string"`
	SenderID    int64     `json:"senderId,string"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	Media       *string   `json:"media"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRoomView(room *domain.ChatRoom) RoomView {
	view := RoomView{
		RoomID:        room.RoomID,
		ListingID:     room.ListingID,
		CreatedBy:     room.CreatedBy,
		MembersCount:  room.MembersCount,
		LastMessageID: room.LastMessageID,
		LastMessageAt: room.LastMessageAt,
		Members:       make([]MemberView, 0, len(room.Members)),
		CreatedAt:     room.CreatedAt,
	}
	if room.Listing != nil {
		view.ListingTitle = room.Listing.Title
	}
	for _, m := range room.Members {
		view.Members = append(view.Members, MemberView{
			UserID: m.UserID,
			Status: string(m.Status),
		})
	}
	return view
}

func toMessageView(msg *domain.Message) MessageView {
	return MessageView{
		MessageID:   msg.MessageID,
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
		Media:       msg.Media,
		IsRead:      msg.IsRead,
		CreatedAt:   msg.CreatedAt,
	}
}
