package store

import (
	"context"
	"errors"
	"testing"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *Repository, name, email string) *user.User {
	t.Helper()

	u := &user.User{
		Fullname:     name,
		Email:        email,
		PrimaryRole:  user.RoleBuyer,
		Status:       user.StatusActive,
		PasswordHash: "hash",
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestRepository_CreateAndFindUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	u := createUser(t, repo, "Alice", "alice@example.com")
	if u.UserID == 0 {
		t.Fatal("CreateUser() did not assign an ID")
	}

	found, err := repo.FindUser(ctx, u.UserID)
	if err != nil {
		t.Fatalf("FindUser() error = %v", err)
	}
	if found.Email != u.Email {
		t.Errorf("FindUser() email = %q, want %q", found.Email, u.Email)
	}

	byEmail, err := repo.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() error = %v", err)
	}
	if byEmail.UserID != u.UserID {
		t.Errorf("FindUserByEmail() id = %d, want %d", byEmail.UserID, u.UserID)
	}

	if _, err := repo.FindUser(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_CreateUserDuplicateEmail(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	createUser(t, repo, "Alice", "alice@example.com")

	err := repo.CreateUser(context.Background(), &user.User{
		Fullname:     "Other",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrUserExists", err)
	}
}

func TestRepository_CreateRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")
	b := createUser(t, repo, "Bob", "bob@example.com")

	listing := &chat.Listing{Title: "Villa", Price: 100}
	if err := repo.CreateListing(ctx, listing); err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}

	room := &chat.ChatRoom{ListingID: &listing.ListingID, CreatedBy: a.UserID}
	if err := repo.CreateRoom(ctx, room, []int64{a.UserID, b.UserID, a.UserID}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.MembersCount != 2 {
		t.Errorf("CreateRoom() MembersCount = %d, want 2", room.MembersCount)
	}

	found, err := repo.FindRoomWithMembers(ctx, room.RoomID)
	if err != nil {
		t.Fatalf("FindRoomWithMembers() error = %v", err)
	}
	if found.Listing == nil || found.Listing.Title != "Villa" {
		t.Errorf("FindRoomWithMembers() listing = %+v, want Villa", found.Listing)
	}
	if len(found.Members) != 2 {
		t.Errorf("FindRoomWithMembers() members = %d, want 2", len(found.Members))
	}
	for _, m := range found.Members {
		if m.Status != chat.MemberJoined {
			t.Errorf("member %d status = %s, want JOINED", m.UserID, m.Status)
		}
	}

	if _, err := repo.FindRoom(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindRoom(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_CreateMessageAdvancesRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")

	room := &chat.ChatRoom{CreatedBy: a.UserID}
	if err := repo.CreateRoom(ctx, room, []int64{a.UserID}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	msg := &chat.Message{RoomID: room.RoomID, SenderID: a.UserID, Content: "hello", MessageType: chat.MessageTypeText}
	if err := repo.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	found, err := repo.FindRoom(ctx, room.RoomID)
	if err != nil {
		t.Fatalf("FindRoom() error = %v", err)
	}
	if found.LastMessageID == nil || *found.LastMessageID != msg.MessageID {
		t.Errorf("LastMessageID = %v, want %d", found.LastMessageID, msg.MessageID)
	}
	if found.LastMessageAt == nil {
		t.Error("LastMessageAt should be set")
	}
}

func TestRepository_CreateMessageUnknownRoomRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	msg := &chat.Message{RoomID: 77, SenderID: 1, Content: "lost", MessageType: chat.MessageTypeText}
	if err := repo.CreateMessage(ctx, msg); !errors.Is(err, ErrNotFound) {
		t.Fatalf("CreateMessage() error = %v, want ErrNotFound", err)
	}

	count, err := repo.CountMessages(ctx, 77)
	if err != nil {
		t.Fatalf("CountMessages() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountMessages() = %d, want 0 after rollback", count)
	}
}

func TestRepository_MessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")
	room := &chat.ChatRoom{CreatedBy: a.UserID}
	if err := repo.CreateRoom(ctx, room, []int64{a.UserID}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		msg := &chat.Message{RoomID: room.RoomID, SenderID: a.UserID, Content: content, MessageType: chat.MessageTypeText}
		if err := repo.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}

	page, err := repo.Messages(ctx, room.RoomID, 0, 2)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Messages() len = %d, want 2", len(page))
	}
	if page[0].Content != "three" || page[1].Content != "two" {
		t.Errorf("Messages() order = [%s %s], want [three two]", page[0].Content, page[1].Content)
	}
}

func TestRepository_MemberStatusAndRooms(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")
	b := createUser(t, repo, "Bob", "bob@example.com")

	first := &chat.ChatRoom{CreatedBy: a.UserID}
	second := &chat.ChatRoom{CreatedBy: a.UserID}
	for _, room := range []*chat.ChatRoom{first, second} {
		if err := repo.CreateRoom(ctx, room, []int64{a.UserID, b.UserID}); err != nil {
			t.Fatalf("CreateRoom() error = %v", err)
		}
	}

	// Activity in the first room moves it to the top.
	msg := &chat.Message{RoomID: first.RoomID, SenderID: a.UserID, Content: "hi", MessageType: chat.MessageTypeText}
	if err := repo.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	rooms, total, err := repo.RoomsForUser(ctx, b.UserID, 0, 10)
	if err != nil {
		t.Fatalf("RoomsForUser() error = %v", err)
	}
	if total != 2 || len(rooms) != 2 {
		t.Fatalf("RoomsForUser() = %d rooms (total %d), want 2", len(rooms), total)
	}
	if rooms[0].RoomID != first.RoomID {
		t.Errorf("RoomsForUser()[0] = %d, want %d", rooms[0].RoomID, first.RoomID)
	}

	if err := repo.SetMemberStatus(ctx, first.RoomID, b.UserID, chat.MemberBlocked); err != nil {
		t.Fatalf("SetMemberStatus() error = %v", err)
	}
	member, err := repo.FindMember(ctx, first.RoomID, b.UserID)
	if err != nil {
		t.Fatalf("FindMember() error = %v", err)
	}
	if member.Status != chat.MemberBlocked {
		t.Errorf("member status = %s, want BLOCKED", member.Status)
	}

	_, total, err = repo.RoomsForUser(ctx, b.UserID, 0, 10)
	if err != nil {
		t.Fatalf("RoomsForUser() error = %v", err)
	}
	if total != 1 {
		t.Errorf("RoomsForUser() total after leaving = %d, want 1", total)
	}

	if err := repo.SetMemberStatus(ctx, 999, b.UserID, chat.MemberBlocked); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetMemberStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_FindDirectRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")
	b := createUser(t, repo, "Bob", "bob@example.com")
	c := createUser(t, repo, "Carol", "carol@example.com")

	room := &chat.ChatRoom{CreatedBy: a.UserID}
	if err := repo.CreateRoom(ctx, room, []int64{a.UserID, b.UserID}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	found, err := repo.FindDirectRoom(ctx, b.UserID, a.UserID, nil)
	if err != nil {
		t.Fatalf("FindDirectRoom() error = %v", err)
	}
	if found.RoomID != room.RoomID {
		t.Errorf("FindDirectRoom() = %d, want %d", found.RoomID, room.RoomID)
	}

	if _, err := repo.FindDirectRoom(ctx, a.UserID, c.UserID, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindDirectRoom(no room) error = %v, want ErrNotFound", err)
	}

	listingID := int64(5)
	if _, err := repo.FindDirectRoom(ctx, a.UserID, b.UserID, &listingID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindDirectRoom(other listing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	a := createUser(t, repo, "Alice", "alice@example.com")
	b := createUser(t, repo, "Bob", "bob@example.com")
	room := &chat.ChatRoom{CreatedBy: a.UserID}
	if err := repo.CreateRoom(ctx, room, []int64{a.UserID, b.UserID}); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	for _, sender := range []int64{a.UserID, a.UserID, b.UserID} {
		msg := &chat.Message{RoomID: room.RoomID, SenderID: sender, Content: "x", MessageType: chat.MessageTypeText}
		if err := repo.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}

	updated, err := repo.MarkRead(ctx, room.RoomID, b.UserID)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("MarkRead() updated = %d, want 2", updated)
	}

	updated, err = repo.MarkRead(ctx, room.RoomID, b.UserID)
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if updated != 0 {
		t.Errorf("MarkRead() second call updated = %d, want 0", updated)
	}
}

func TestRepository_Notifications(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	err := repo.CreateNotifications(ctx, []chat.Notification{
		{UserID: 1, Type: chat.NotificationChatMessage, Title: "first"},
		{UserID: 1, Type: chat.NotificationChatMessage, Title: "second"},
		{UserID: 2, Type: chat.NotificationChatMessage, Title: "other"},
	})
	if err != nil {
		t.Fatalf("CreateNotifications() error = %v", err)
	}
	if err := repo.CreateNotifications(ctx, nil); err != nil {
		t.Errorf("CreateNotifications(nil) error = %v", err)
	}

	found, err := repo.NotificationsFor(ctx, 1, 10)
	if err != nil {
		t.Fatalf("NotificationsFor() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("NotificationsFor() len = %d, want 2", len(found))
	}
	if found[0].Title != "second" {
		t.Errorf("NotificationsFor()[0] = %q, want second", found[0].Title)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	if err := Seed(ctx, repo, nil); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	// Seeding twice is a no-op.
	if err := Seed(ctx, repo, nil); err != nil {
		t.Fatalf("Seed() second call error = %v", err)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountUsers() = %d, want 3", count)
	}
}

func TestSeed_UsesPasswordHasher(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	var calls int
	hash := func(password string) (string, error) {
		calls++
		return "hashed:" + password, nil
	}
	if err := Seed(ctx, repo, hash); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("hash calls = %d, want 1", calls)
	}

	u, err := repo.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() error = %v", err)
	}
	if u.PasswordHash != "hashed:"+DemoPassword {
		t.Errorf("PasswordHash = %q, want the injected hash", u.PasswordHash)
	}
}
