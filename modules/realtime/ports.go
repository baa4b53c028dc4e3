package realtime

import (
	"context"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"github.com/example/realestate-chat/events"
)

// TokenVerifier verifies a bearer token and returns its subject.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Store is the data access the command handlers need.
// Lookups return store.ErrNotFound for missing records.
type Store interface {
	FindUser(ctx context.Context, id int64) (*user.User, error)
	FindRoom(ctx context.Context, id int64) (*chat.ChatRoom, error)
	FindMember(ctx context.Context, roomID, userID int64) (*chat.Member, error)
	CreateMessage(ctx context.Context, msg *chat.Message) error
	RoomMembers(ctx context.Context, roomID int64) ([]chat.Member, error)
}

// PresenceTracker is told when a user's first connection registers
// and when their last one goes away.
type PresenceTracker interface {
	Online(userID int64)
	Offline(userID int64)
}

// MessagePublisher announces delivered messages to the rest of the application.
type MessagePublisher interface {
	PublishMessageSent(evt events.MessageSentEvent) error
}
