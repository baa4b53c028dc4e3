package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PresencePort is what other modules use to read presence.
type PresencePort interface {
	Status(ctx context.Context, userIDs []int64) (*StatusResponse, error)
}

// PresenceAdapter implements PresencePort using the service container.
type PresenceAdapter struct {
	container mono.ServiceContainer
}

// NewPresenceAdapter creates a new PresenceAdapter.
func NewPresenceAdapter(container mono.ServiceContainer) *PresenceAdapter {
	return &PresenceAdapter{container: container}
}

// Status returns the presence of the given users.
func (a *PresenceAdapter) Status(ctx context.Context, userIDs []int64) (*StatusResponse, error) {
	req := StatusRequest{UserIDs: userIDs}
	var resp StatusResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServicePresenceStatus,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("presence-status request failed: %w", err)
	}
	return &resp, nil
}
