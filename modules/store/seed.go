package store

import (
	"context"
	"fmt"
	"log"

	"github.com/example/realestate-chat/domain/chat"
	"github.com/example/realestate-chat/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Seed inserts demo users, a listing and a room when the users table is empty.
// hashPassword may be nil.
func Seed(ctx context.Context, repo *Repository, hashPassword func(string) (string, error)) error {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if hashPassword == nil {
		hashPassword = defaultHashPassword
	}
	hash, err := hashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	users := []*user.User{
		{Fullname: "Alice Nguyen", Email: "alice@example.com", Phone: "0900000001", PrimaryRole: user.RoleSeller},
		{Fullname: "Bob Tran", Email: "bob@example.com", Phone: "0900000002", PrimaryRole: user.RoleBuyer},
		{Fullname: "Carol Le", Email: "carol@example.com", Phone: "0900000003", PrimaryRole: user.RoleAgent},
	}
	for _, u := range users {
		u.Status = user.StatusActive
		u.PasswordHash = hash
		if err := repo.CreateUser(ctx, u); err != nil {
			return err
		}
	}

	listing := &chat.Listing{Title: "2BR apartment, District 1", Price: 250000, OwnerID: users[0].UserID}
	if err := repo.CreateListing(ctx, listing); err != nil {
		return err
	}

	room := &chat.ChatRoom{ListingID: &listing.ListingID, CreatedBy: users[1].UserID}
	if err := repo.CreateRoom(ctx, room, []int64{users[0].UserID, users[1].UserID, users[2].UserID}); err != nil {
		return err
	}

	log.Printf("[store] Seeded %d demo users and room %d", len(users), room.RoomID)
	return nil
}

func defaultHashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}
