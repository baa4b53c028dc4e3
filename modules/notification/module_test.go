package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/events"
	"github.com/example/realestate-chat/modules/store"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func setupTestModule(t *testing.T) *Module {
	t.Helper()

	db, err := store.Open(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &Module{
		store:  store.NewRepository(db),
		logger: &mockLogger{},
	}
}

func TestModule_MessageSentSkipsSender(t *testing.T) {
	ctx := context.Background()
	m := setupTestModule(t)

	event := events.MessageSentEvent{
		MessageID:    1,
		RoomID:       10,
		SenderID:     4,
		SenderName:   "Dung",
		Content:      "Is the apartment still available?",
		MessageType:  string(chat.MessageTypeText),
		RecipientIDs: []int64{4, 5, 6},
		Timestamp:    time.Now(),
	}
	if err := m.handleMessageSent(ctx, event, nil); err != nil {
		t.Fatalf("handleMessageSent() error = %v", err)
	}

	for _, id := range []int64{5, 6} {
		resp, err := m.handleList(ctx, ListRequest{UserID: id}, nil)
		if err != nil {
			t.Fatalf("handleList() error = %v", err)
		}
		if len(resp.Notifications) != 1 {
			t.Fatalf("user %d notifications = %d, want 1", id, len(resp.Notifications))
		}
		n := resp.Notifications[0]
		if n.Type != chat.NotificationChatMessage || n.RefID != 10 {
			t.Errorf("notification = %+v, want CHAT_MESSAGE for room 10", n)
		}
		if n.Title != "New message from Dung" || n.Body != event.Content {
			t.Errorf("title/body = %q/%q", n.Title, n.Body)
		}
	}

	sender, err := m.handleList(ctx, ListRequest{UserID: 4}, nil)
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if len(sender.Notifications) != 0 {
		t.Errorf("sender notifications = %d, want 0", len(sender.Notifications))
	}
}

func TestModule_MessageSentMediaBody(t *testing.T) {
	ctx := context.Background()
	m := setupTestModule(t)

	event := events.MessageSentEvent{
		RoomID:       3,
		SenderID:     1,
		SenderName:   "Alice",
		Content:      "https://cdn.example.com/a.jpg",
		MessageType:  string(chat.MessageTypeImage),
		RecipientIDs: []int64{1, 2},
		Timestamp:    time.Now(),
	}
	if err := m.handleMessageSent(ctx, event, nil); err != nil {
		t.Fatalf("handleMessageSent() error = %v", err)
	}

	resp, err := m.handleList(ctx, ListRequest{UserID: 2}, nil)
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if len(resp.Notifications) != 1 || resp.Notifications[0].Body != "[IMAGE]" {
		t.Errorf("notifications = %+v, want one [IMAGE] body", resp.Notifications)
	}
}

func TestModule_RoomCreatedInvitesMembers(t *testing.T) {
	ctx := context.Background()
	m := setupTestModule(t)

	event := events.RoomCreatedEvent{
		RoomID:    8,
		CreatedBy: 1,
		MemberIDs: []int64{1, 2, 3},
		Timestamp: time.Now(),
	}
	if err := m.handleRoomCreated(ctx, event, nil); err != nil {
		t.Fatalf("handleRoomCreated() error = %v", err)
	}

	tests := []struct {
		userID int64
		want   int
	}{
		{1, 0},
		{2, 1},
		{3, 1},
	}
	for _, tt := range tests {
		resp, err := m.handleList(ctx, ListRequest{UserID: tt.userID}, nil)
		if err != nil {
			t.Fatalf("handleList() error = %v", err)
		}
		if got := len(resp.Notifications); got != tt.want {
			t.Errorf("user %d invitations = %d, want %d", tt.userID, got, tt.want)
		}
		for _, n := range resp.Notifications {
			if n.Type != chat.NotificationRoomInvite || n.RefID != 8 {
				t.Errorf("notification = %+v, want ROOM_INVITE for room 8", n)
			}
		}
	}
}

func TestModule_ListNewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	m := setupTestModule(t)

	for room := int64(1); room <= 3; room++ {
		event := events.RoomCreatedEvent{RoomID: room, CreatedBy: 1, MemberIDs: []int64{2}, Timestamp: time.Now()}
		if err := m.handleRoomCreated(ctx, event, nil); err != nil {
			t.Fatalf("handleRoomCreated() error = %v", err)
		}
	}

	resp, err := m.handleList(ctx, ListRequest{UserID: 2, Limit: 2}, nil)
	if err != nil {
		t.Fatalf("handleList() error = %v", err)
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(resp.Notifications))
	}
	if resp.Notifications[0].RefID != 3 || resp.Notifications[1].RefID != 2 {
		t.Errorf("order = %d, %d; want 3, 2", resp.Notifications[0].RefID, resp.Notifications[1].RefID)
	}
}

func TestPreview(t *testing.T) {
	short := "hello"
	if got := preview(short); got != short {
		t.Errorf("preview(%q) = %q", short, got)
	}

	long := strings.Repeat("á", previewRunes+5)
	got := preview(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != previewRunes+3 {
		t.Errorf("preview(long) has %d runes, want %d", len([]rune(got)), previewRunes+3)
	}
}
