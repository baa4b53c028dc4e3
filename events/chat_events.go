package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a chat message has been persisted and fanned out.
type MessageSentEvent struct {
	MessageID    int64     `json:"message_id,string"`
	RoomID       int64     `json:"room_id,string"`
	SenderID     int64     `json:"sender_id,string"`
	SenderName   string    `json:"sender_name"`
	Content      string    `json:"content"`
	MessageType  string    `json:"message_type"`
	RecipientIDs []int64   `json:"recipient_ids"`
	Delivered    int       `json:"delivered"`
	Timestamp    time.Time `json:"timestamp"`
}

// RoomCreatedEvent is emitted when a chat room is created over the REST API.
type RoomCreatedEvent struct {
	RoomID    int64     `json:"room_id,string"`
	ListingID int64     `json:"listing_id,string,omitempty"`
	CreatedBy int64     `json:"created_by,string"`
	MemberIDs []int64   `json:"member_ids"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberLeftEvent is emitted when a member leaves (is blocked from) a room.
type MemberLeftEvent struct {
	RoomID    int64     `json:"room_id,string"`
	UserID    int64     `json:"user_id,string"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"realtime",
		"MessageSent",
		"v1",
	)

	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"chat",
		"RoomCreated",
		"v1",
	)

	MemberLeftV1 = helper.EventDefinition[MemberLeftEvent](
		"chat",
		"MemberLeft",
		"v1",
	)
)
