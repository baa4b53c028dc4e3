package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
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

func newMockLogger() types.Logger {
	return &mockLogger{}
}

// fakeTransport records everything written to it.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	pings     int
	deadlines []time.Time
	closed    bool
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("use of closed connection")
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) WriteControl(_ int, _ []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("use of closed connection")
	}
	f.pings++
	return nil
}

func (f *fakeTransport) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadlines = append(f.deadlines, t)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeTransport) writeDeadlines() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.deadlines...)
}

// Frames returns every frame decoded as a JSON object.
func (f *fakeTransport) Frames(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.frames))
	for _, raw := range f.frames {
		var frame map[string]any
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("frame %s is not a JSON object: %v", raw, err)
		}
		out = append(out, frame)
	}
	return out
}

// Last returns the most recent frame.
func (f *fakeTransport) Last(t *testing.T) map[string]any {
	t.Helper()
	frames := f.Frames(t)
	if len(frames) == 0 {
		t.Fatal("no frames written")
	}
	return frames[len(frames)-1]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// mockVerifier accepts the tokens it was given.
type mockVerifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (v *mockVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if subject, ok := v.tokens[token]; ok {
		return subject, nil
	}
	return "", errors.New("token validation failed: invalid token")
}

func (v *mockVerifier) issue(token, subject string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[token] = subject
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.MessageSentEvent
}

func (p *recordingPublisher) PublishMessageSent(evt events.MessageSentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []events.MessageSentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.MessageSentEvent(nil), p.events...)
}

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	repo      *store.Repository
	registry  *Registry
	verifier  *mockVerifier
	publisher *recordingPublisher
	handler   *Handler
}

func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		t:         t,
		ctx:       context.Background(),
		repo:      store.NewRepository(db),
		registry:  NewRegistry(nil),
		verifier:  &mockVerifier{tokens: make(map[string]string)},
		publisher: &recordingPublisher{},
	}
	env.handler = NewHandler(env.registry, env.repo, env.verifier, env.publisher, newMockLogger())
	return env
}

// createUser saves a user and issues the token "token-<id>" for it.
func (e *testEnv) createUser(id int64, name string, status user.Status) *user.User {
	e.t.Helper()

	u := &user.User{
		UserID:       id,
		Fullname:     name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, id),
		Phone:        "0900000000",
		Avatar:       "/avatars/" + name + ".png",
		PrimaryRole:  user.RoleBuyer,
		Status:       status,
		PasswordHash: "secret-hash",
	}
	if err := e.repo.CreateUser(e.ctx, u); err != nil {
		e.t.Fatalf("CreateUser() error = %v", err)
	}
	e.verifier.issue(tokenFor(u.UserID), strconv.FormatInt(u.UserID, 10))
	return u
}

func (e *testEnv) createRoom(id int64, listing *chat.Listing, members ...int64) *chat.ChatRoom {
	e.t.Helper()

	room := &chat.ChatRoom{RoomID: id, CreatedBy: members[0]}
	if listing != nil {
		if err := e.repo.CreateListing(e.ctx, listing); err != nil {
			e.t.Fatalf("CreateListing() error = %v", err)
		}
		room.ListingID = &listing.ListingID
	}
	if err := e.repo.CreateRoom(e.ctx, room, members); err != nil {
		e.t.Fatalf("CreateRoom() error = %v", err)
	}
	return room
}

func (e *testEnv) connect() (*Connection, *fakeTransport) {
	tr := &fakeTransport{}
	return NewConnection(tr, nil), tr
}

func (e *testEnv) send(conn *Connection, frame any) {
	e.t.Helper()

	data, err := json.Marshal(frame)
	if err != nil {
		e.t.Fatalf("json.Marshal() error = %v", err)
	}
	e.handler.Handle(e.ctx, conn, data)
}

// login authenticates conn as u and clears the recorded frames.
func (e *testEnv) login(conn *Connection, tr *fakeTransport, u *user.User, deviceID string) {
	e.t.Helper()

	e.send(conn, map[string]any{
		"command": CommandLogin,
		"userId":  u.UserID,
		"token":   tokenFor(u.UserID),
		"uuid":    deviceID,
	})
	if got := tr.Last(e.t)["result"]; got != ResultSuccess {
		e.t.Fatalf("login result = %v, want success (frame %v)", got, tr.Last(e.t))
	}
	tr.reset()
}

func (e *testEnv) messageCount(roomID int64) int64 {
	e.t.Helper()

	n, err := e.repo.CountMessages(e.ctx, roomID)
	if err != nil {
		e.t.Fatalf("CountMessages() error = %v", err)
	}
	return n
}

func tokenFor(id int64) string {
	return "token-" + strconv.FormatInt(id, 10)
}

func textMessage(roomID int64, content string) map[string]any {
	return map[string]any{
		"command":     CommandMessage,
		"roomId":      roomID,
		"content":     content,
		"messageType": "TEXT",
	}
}
