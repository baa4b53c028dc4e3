package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists is returned when a user with the same email already exists.
	ErrUserExists = errors.New("user with this email already exists")
)

// Repository provides access to users, rooms, members, messages and notifications.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Ping checks the underlying database connection.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser saves a new user.
func (r *Repository) CreateUser(ctx context.Context, u *user.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUser finds a user by ID.
func (r *Repository) FindUser(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, "user_id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindUserByEmail finds a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CountUsers returns the number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateListing saves a new listing.
func (r *Repository) CreateListing(ctx context.Context, l *chat.Listing) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// CreateRoom saves a room and a JOINED membership for every distinct member ID.
func (r *Repository) CreateRoom(ctx context.Context, room *chat.ChatRoom, memberIDs []int64) error {
	ids := uniqueIDs(memberIDs)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room.IsActive = true
		room.MembersCount = len(ids)
		if err := tx.Omit("Members", "Listing").Create(room).Error; err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		members := make([]chat.Member, 0, len(ids))
		for _, id := range ids {
			members = append(members, chat.Member{
				RoomID:       room.RoomID,
				UserID:       id,
				Status:       chat.MemberJoined,
				Notification: 1,
			})
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to add room members: %w", err)
		}
		room.Members = members
		return nil
	})
}

// FindRoom finds a room by ID together with its listing.
func (r *Repository) FindRoom(ctx context.Context, id int64) (*chat.ChatRoom, error) {
	var room chat.ChatRoom
	if err := r.db.WithContext(ctx).Preload("Listing").First(&room, "room_id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// FindRoomWithMembers finds a room by ID with its listing and membership rows.
func (r *Repository) FindRoomWithMembers(ctx context.Context, id int64) (*chat.ChatRoom, error) {
	var room chat.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Members").
		First(&room, "room_id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// FindDirectRoom finds the two-member room shared by a and b for the given listing.
func (r *Repository) FindDirectRoom(ctx context.Context, a, b int64, listingID *int64) (*chat.ChatRoom, error) {
	memberOf := func(userID int64) *gorm.DB {
		return r.db.Model(&chat.Member{}).Select("room_id").Where("user_id = ?", userID)
	}

	q := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Members").
		Where("members_count = ?", 2).
		Where("room_id IN (?)", memberOf(a)).
		Where("room_id IN (?)", memberOf(b))
	if listingID == nil {
		q = q.Where("listing_id IS NULL")
	} else {
		q = q.Where("listing_id = ?", *listingID)
	}

	var room chat.ChatRoom
	if err := q.First(&room).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// RoomsForUser returns the active rooms the user has joined, most recent activity first.
func (r *Repository) RoomsForUser(ctx context.Context, userID int64, offset, limit int) ([]chat.ChatRoom, int64, error) {
	joined := func(db *gorm.DB) *gorm.DB {
		sub := r.db.Model(&chat.Member{}).
			Select("room_id").
			Where("user_id = ? AND status = ?", userID, chat.MemberJoined)
		return db.Where("is_active = ?", true).Where("room_id IN (?)", sub)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&chat.ChatRoom{}).Scopes(joined).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rooms: %w", err)
	}

	var rooms []chat.ChatRoom
	err := r.db.WithContext(ctx).
		Scopes(joined).
		Preload("Listing").
		Preload("Members").
		Order("last_message_at DESC NULLS LAST").
		Order("room_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rooms: %w", err)
	}
	return rooms, total, nil
}

// FindMember finds the membership row of a user in a room.
func (r *Repository) FindMember(ctx context.Context, roomID, userID int64) (*chat.Member, error) {
	var m chat.Member
	if err := r.db.WithContext(ctx).First(&m, "room_id = ? AND user_id = ?", roomID, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// RoomMembers returns every membership row of a room.
func (r *Repository) RoomMembers(ctx context.Context, roomID int64) ([]chat.Member, error) {
	var members []chat.Member
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("member_id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to find room members: %w", err)
	}
	return members, nil
}

// SetMemberStatus changes the status of a membership row.
func (r *Repository) SetMemberStatus(ctx context.Context, roomID, userID int64, status chat.MemberStatus) error {
	result := r.db.WithContext(ctx).
		Model(&chat.Member{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update member status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage saves a message and advances the room's last-message pointer in one transaction.
func (r *Repository) CreateMessage(ctx context.Context, msg *chat.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		result := tx.Model(&chat.ChatRoom{}).
			Where("room_id = ?", msg.RoomID).
			Updates(map[string]any{
				"last_message_id": msg.MessageID,
				"last_message_at": msg.CreatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update room last message: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Messages returns a page of a room's messages, newest first.
func (r *Repository) Messages(ctx context.Context, roomID int64, offset, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("message_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the number of messages in a room.
func (r *Repository) CountMessages(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&chat.Message{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// MarkRead marks every unread message in the room not sent by userID as read.
func (r *Repository) MarkRead(ctx context.Context, roomID, userID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindUsers returns the users with the given IDs.
func (r *Repository) FindUsers(ctx context.Context, ids []int64) ([]user.User, error) {
	var users []user.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

// CreateNotifications saves a batch of notifications.
func (r *Repository) CreateNotifications(ctx context.Context, notifications []chat.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// NotificationsFor returns the latest notifications of a user, newest first.
func (r *Repository) NotificationsFor(ctx context.Context, userID int64, limit int) ([]chat.Notification, error) {
	var notifications []chat.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("notification_id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	return notifications, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
