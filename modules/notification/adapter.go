package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationPort reads notifications on behalf of other modules.
type NotificationPort interface {
	List(ctx context.Context, userID int64, limit int) (*ListResponse, error)
}

// NotificationAdapter implements NotificationPort using the service container.
type NotificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates a new NotificationAdapter.
func NewNotificationAdapter(container mono.ServiceContainer) *NotificationAdapter {
	return &NotificationAdapter{container: container}
}

// List returns the latest notifications of userID.
func (a *NotificationAdapter) List(ctx context.Context, userID int64, limit int) (*ListResponse, error) {
	req := ListRequest{UserID: userID, Limit: limit}
	var resp ListResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListNotifications,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListNotifications, err)
	}
	return &resp, nil
}
