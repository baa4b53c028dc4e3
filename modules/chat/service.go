package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"

	domain "github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"github.com/example/realestate-chat/modules/store"
	"golang.org/x/sync/errgroup"
)

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service errors.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotAMember     = errors.New("not a member of this room")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidMembers = errors.New("a room needs at least two distinct members")
)

// Store is the persistence the chat service needs.
type Store interface {
	FindUsers(ctx context.Context, ids []int64) ([]user.User, error)
	CreateRoom(ctx context.Context, room *domain.ChatRoom, memberIDs []int64) error
	FindRoom(ctx context.Context, id int64) (*domain.ChatRoom, error)
	FindRoomWithMembers(ctx context.Context, id int64) (*domain.ChatRoom, error)
	FindDirectRoom(ctx context.Context, a, b int64, listingID *int64) (*domain.ChatRoom, error)
	RoomsForUser(ctx context.Context, userID int64, offset, limit int) ([]domain.ChatRoom, int64, error)
	FindMember(ctx context.Context, roomID, userID int64) (*domain.Member, error)
	SetMemberStatus(ctx context.Context, roomID, userID int64, status domain.MemberStatus) error
	Messages(ctx context.Context, roomID int64, offset, limit int) ([]domain.Message, error)
	CountMessages(ctx context.Context, roomID int64) (int64, error)
	MarkRead(ctx context.Context, roomID, userID int64) (int64, error)
}

// Page selects a slice of a list. Page numbers start at 1.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// Service implements the room and history operations of the REST surface.
type Service struct {
	store Store
}

// NewService creates a chat service.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// CreateRoom creates a room owned by creatorID. The creator is always a member.
func (s *Service) CreateRoom(ctx context.Context, creatorID int64, listingID *int64, memberIDs []int64) (*domain.ChatRoom, error) {
	ids := withMember(memberIDs, creatorID)
	if len(ids) < 2 {
		return nil, ErrInvalidMembers
	}
	if err := s.requireUsers(ctx, ids); err != nil {
		return nil, err
	}

	room := &domain.ChatRoom{
		ListingID: listingID,
		CreatedBy: creatorID,
	}
	if err := s.store.CreateRoom(ctx, room, ids); err != nil {
		return nil, err
	}
	return s.store.FindRoomWithMembers(ctx, room.RoomID)
}

// DirectRoom returns the two-member room of userID and peerID for the listing,
// creating it when none exists. created reports whether a new room was made.
func (s *Service) DirectRoom(ctx context.Context, userID, peerID int64, listingID *int64) (room *domain.ChatRoom, created bool, err error) {
	if userID == peerID {
		return nil, false, ErrInvalidMembers
	}

	room, err = s.store.FindDirectRoom(ctx, userID, peerID, listingID)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	room, err = s.CreateRoom(ctx, userID, listingID, []int64{peerID})
	if err != nil {
		return nil, false, err
	}
	return room, true, nil
}

// Rooms returns a page of the rooms userID has joined and the total count.
func (s *Service) Rooms(ctx context.Context, userID int64, page Page) ([]domain.ChatRoom, int64, error) {
	page = page.normalize()
	return s.store.RoomsForUser(ctx, userID, page.offset(), page.Size)
}

// History returns a page of a room's messages, oldest first within the page,
// together with the room's total message count. Pages count back from the
// newest message.
func (s *Service) History(ctx context.Context, roomID, userID int64, page Page) ([]domain.Message, int64, error) {
	if err := s.requireJoined(ctx, roomID, userID); err != nil {
		return nil, 0, err
	}
	page = page.normalize()

	var (
		messages []domain.Message
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = s.store.Messages(gctx, roomID, page.offset(), page.Size)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountMessages(gctx, roomID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	slices.Reverse(messages)
	return messages, total, nil
}

// MarkRead marks the messages other members sent to the room as read.
func (s *Service) MarkRead(ctx context.Context, roomID, userID int64) (int64, error) {
	if err := s.requireJoined(ctx, roomID, userID); err != nil {
		return 0, err
	}
	return s.store.MarkRead(ctx, roomID, userID)
}

// Leave blocks userID in the room so it can neither send nor receive.
func (s *Service) Leave(ctx context.Context, roomID, userID int64) error {
	if err := s.requireJoined(ctx, roomID, userID); err != nil {
		return err
	}
	return s.store.SetMemberStatus(ctx, roomID, userID, domain.MemberBlocked)
}

func (s *Service) requireJoined(ctx context.Context, roomID, userID int64) error {
	if _, err := s.store.FindRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	member, err := s.store.FindMember(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAMember
		}
		return err
	}
	if member.Status != domain.MemberJoined {
		return ErrNotAMember
	}
	return nil
}

func (s *Service) requireUsers(ctx context.Context, ids []int64) error {
	users, err := s.store.FindUsers(ctx, ids)
	if err != nil {
		return err
	}
	if len(users) != len(ids) {
		return fmt.Errorf("%w: %d of %d members exist", ErrUserNotFound, len(users), len(ids))
	}
	return nil
}

// withMember returns ids deduplicated with id first.
func withMember(ids []int64, id int64) []int64 {
	out := []int64{id}
	for _, v := range ids {
		if v > 0 && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
