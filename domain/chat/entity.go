package chat

import "time"

// MessageType is the kind of content a message carries.
type MessageType string

// Message types accepted by the chat.
const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeVideo MessageType = "VIDEO"
	MessageTypeFile  MessageType = "FILE"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

// MemberStatus gates whether a member may send to a room.
type MemberStatus string

// Membership statuses.
const (
	MemberJoined  MemberStatus = "JOINED"
	MemberBlocked MemberStatus = "BLOCKED"
)

// Listing is the property listing a room may be attached to.
type Listing struct {
	ListingID int64   `gorm:"primaryKey;autoIncrement"`
	Title     string  `gorm:"not null;type:text"`
	Price     float64 `gorm:"not null;default:0"`
	OwnerID   int64   `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for the Listing entity.
func (Listing) TableName() string {
	return "listings"
}

// ChatRoom is a persisted conversation.
type ChatRoom struct {
	RoomID        int64    `gorm:"primaryKey;autoIncrement"`
	ListingID     *int64   `gorm:"index"`
	Listing       *Listing `gorm:"foreignKey:ListingID;references:ListingID"`
	CreatedBy     int64    `gorm:"not null"`
	IsActive      bool     `gorm:"not null;default:true"`
	MembersCount  int      `gorm:"not null;default:0"`
	LastMessageID *int64
	LastMessageAt *time.Time `gorm:"index"`
	Members       []Member   `gorm:"foreignKey:RoomID;references:RoomID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for the ChatRoom entity.
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// Member joins a user to a room.
type Member struct {
	MemberID     int64        `gorm:"primaryKey;autoIncrement"`
	RoomID       int64        `gorm:"not null;uniqueIndex:idx_members_room_user"`
	UserID       int64        `gorm:"not null;uniqueIndex:idx_members_room_user;index"`
	Status       MemberStatus `gorm:"not null;type:text;default:JOINED"`
	Notification int          `gorm:"not null;default:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the Member entity.
func (Member) TableName() string {
	return "members"
}

// Message is a persisted chat message. Only IsRead changes after creation.
type Message struct {
	MessageID   int64       `gorm:"primaryKey;autoIncrement"`
	RoomID      int64       `gorm:"not null;index"`
	SenderID    int64       `gorm:"not null;index"`
	Content     string      `gorm:"not null;type:text"`
	MessageType MessageType `gorm:"not null;type:text;default:TEXT"`
	Media       *string     `gorm:"type:text"`
	IsRead      bool        `gorm:"not null;default:false"`
	CreatedAt   time.Time   `gorm:"index"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// Notification types.
const (
	NotificationChatMessage = "CHAT_MESSAGE"
	NotificationRoomInvite  = "ROOM_INVITE"
)

// Notification is an in-app notification for a user.
type Notification struct {
	NotificationID int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"not null;index"`
	Type           string `gorm:"not null;type:text"`
	Title          string `gorm:"not null;type:text"`
	Body           string `gorm:"type:text"`
	RefID          int64
	IsRead         bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

// TableName returns the table name for the Notification entity.
func (Notification) TableName() string {
	return "notifications"
}
