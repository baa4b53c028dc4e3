package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
)

// Command discriminators.
const (
	CommandLogin   = "user_login"
	CommandMessage = "user_message"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// WelcomeText is sent on every new connection.
const WelcomeText = "Connected to BDSTHAT WebSocket server"

// ID is a numeric identifier. It decodes from a JSON number or a decimal
// string and always encodes as a decimal string.
type ID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		*id = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid id %s: %w", s, err)
		}
		s = unquoted
		if s == "" {
			*id = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(id), 10))), nil
}

// Command is an inbound command. The set of implementations is closed.
type Command interface {
	commandName() string
}

// LoginCommand binds a connection to a user.
type LoginCommand struct {
	UserID ID     `json:"userId"`
	Token  string `json:"token"`
	UUID   string `json:"uuid"`
}

func (LoginCommand) commandName() string { return CommandLogin }

// MessageCommand sends a message to a room.
type MessageCommand struct {
	RoomID      ID      `json:"roomId"`
	Content     string  `json:"content"`
	MessageType string  `json:"messageType"`
	Media       *string `json:"media,omitempty"`
}

func (MessageCommand) commandName() string { return CommandMessage }

type envelope struct {
	Command json.RawMessage `json:"command"`
}

// DecodeCommand parses one inbound frame.
func DecodeCommand(data []byte) (Command, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, newError(KindProtocol, ReasonInvalidFormat)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &CommandError{Kind: KindProtocol, Reason: ReasonInvalidFormat, Err: err}
	}

	var name string
	if len(env.Command) == 0 || json.Unmarshal(env.Command, &name) != nil {
		return nil, newError(KindProtocol, ReasonUnknownCommand)
	}

	switch name {
	case CommandLogin:
		var cmd LoginCommand
		if err := json.Unmarshal(trimmed, &cmd); err != nil {
			return nil, &CommandError{Kind: KindProtocol, Reason: ReasonInvalidFormat, Err: err}
		}
		return cmd, nil
	case CommandMessage:
		var cmd MessageCommand
		if err := json.Unmarshal(trimmed, &cmd); err != nil {
			return nil, &CommandError{Kind: KindProtocol, Reason: ReasonInvalidFormat, Err: err}
		}
		return cmd, nil
	default:
		return nil, newError(KindProtocol, ReasonUnknownCommand)
	}
}

// WelcomeFrame is sent immediately after the upgrade.
type WelcomeFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewWelcomeFrame builds the welcome frame for the given time.
func NewWelcomeFrame(now time.Time) WelcomeFrame {
	return WelcomeFrame{
		Type:      "welcome",
		Message:   WelcomeText,
		Timestamp: formatTime(now),
	}
}

// FailureFrame is the single shape of every failed command.
type FailureFrame struct {
	Command string `json:"command,omitempty"`
	Result  string `json:"result"`
	Reason  string `json:"reason"`
}

// LoginSuccessFrame answers a successful login.
type LoginSuccessFrame struct {
	Command string       `json:"command"`
	Result  string       `json:"result"`
	User    user.Profile `json:"user"`
}

// BroadcastFrame carries a new message to every member connection.
type BroadcastFrame struct {
	Command string         `json:"command"`
	Message MessagePayload `json:"message"`
	Room    RoomPayload    `json:"room"`
}

// MessagePayload is the message part of a broadcast.
type MessagePayload struct {
	MessageID   ID            `json:"messageId"`
	Content     string        `json:"content"`
	RoomID      ID            `json:"roomId"`
	MessageType string        `json:"messageType"`
	Media       *string       `json:"media"`
	CreatedAt   string        `json:"createdAt"`
	Sender      SenderPayload `json:"sender"`
}

// SenderPayload is the public view of the sender.
type SenderPayload struct {
	UserID      ID        `json:"userId"`
	Fullname    string    `json:"fullname"`
	Avatar      string    `json:"avatar"`
	PrimaryRole user.Role `json:"primaryRole"`
}

// RoomPayload identifies the room and its listing.
type RoomPayload struct {
	RoomID    ID     `json:"roomId"`
	ListingID *ID    `json:"listingId,omitempty"`
	Title     string `json:"title,omitempty"`
}

func failure(command string, err *CommandError) FailureFrame {
	return FailureFrame{
		Command: command,
		Result:  ResultFailed,
		Reason:  err.Reason,
	}
}

func newBroadcastFrame(msg *chat.Message, sender *user.User, room *chat.ChatRoom) BroadcastFrame {
	roomPayload := RoomPayload{RoomID: ID(room.RoomID)}
	if room.Listing != nil {
		listingID := ID(room.Listing.ListingID)
		roomPayload.ListingID = &listingID
		roomPayload.Title = room.Listing.Title
	}

	return BroadcastFrame{
		Command: CommandMessage,
		Message: MessagePayload{
			MessageID:   ID(msg.MessageID),
			Content:     msg.Content,
			RoomID:      ID(msg.RoomID),
			MessageType: string(msg.MessageType),
			Media:       msg.Media,
			CreatedAt:   formatTime(msg.CreatedAt),
			Sender: SenderPayload{
				UserID:      ID(sender.UserID),
				Fullname:    sender.Fullname,
				Avatar:      sender.Avatar,
				PrimaryRole: sender.PrimaryRole,
			},
		},
		Room: roomPayload,
	}
}

// formatTime renders t as UTC ISO 8601 with millisecond precision.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
