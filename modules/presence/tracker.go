package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding the IDs of online users.
const DefaultKey = "presence:online"

// Tracker records online users in a Redis set.
type Tracker struct {
	client *redis.Client
	key    string
}

// NewTracker creates a tracker on the given set key.
func NewTracker(client *redis.Client, key string) *Tracker {
	if key == "" {
		key = DefaultKey
	}
	return &Tracker{
		client: client,
		key:    key,
	}
}

// SetOnline adds userID to the online set.
func (t *Tracker) SetOnline(ctx context.Context, userID int64) error {
	if err := t.client.SAdd(ctx, t.key, strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to mark user online: %w", err)
	}
	return nil
}

// SetOffline removes userID from the online set.
func (t *Tracker) SetOffline(ctx context.Context, userID int64) error {
	if err := t.client.SRem(ctx, t.key, strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to mark user offline: %w", err)
	}
	return nil
}

// IsOnline reports whether userID is in the online set.
func (t *Tracker) IsOnline(ctx context.Context, userID int64) (bool, error) {
	online, err := t.client.SIsMember(ctx, t.key, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read presence: %w", err)
	}
	return online, nil
}

// OnlineStatus returns the presence of every given user in one round trip.
func (t *Tracker) OnlineStatus(ctx context.Context, userIDs []int64) (map[int64]bool, error) {
	status := make(map[int64]bool, len(userIDs))
	if len(userIDs) == 0 {
		return status, nil
	}

	members := make([]any, len(userIDs))
	for i, id := range userIDs {
		members[i] = strconv.FormatInt(id, 10)
	}
	flags, err := t.client.SMIsMember(ctx, t.key, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}
	for i, id := range userIDs {
		status[id] = flags[i]
	}
	return status, nil
}

// OnlineCount returns the number of online users.
func (t *Tracker) OnlineCount(ctx context.Context) (int64, error) {
	n, err := t.client.SCard(ctx, t.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count online users: %w", err)
	}
	return n, nil
}

// Clear empties the online set.
func (t *Tracker) Clear(ctx context.Context) error {
	return t.client.Del(ctx, t.key).Err()
}
