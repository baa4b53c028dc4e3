package realtime

import (
	"context"
	"errors"
	"strconv"

	"github.com/example/realestate-chat/domain/user"
	"github.com/example/realestate-chat/modules/store"
)

// login promotes conn to authenticated. Identity is attached once per connection.
func (h *Handler) login(ctx context.Context, conn *Connection, cmd LoginCommand) (*user.Profile, *CommandError) {
	if conn.Authenticated() {
		return nil, newError(KindAuth, ReasonAlreadyAuthenticated)
	}

	subject, err := h.verifier.VerifyToken(ctx, cmd.Token)
	if err != nil {
		return nil, &CommandError{Kind: KindAuth, Reason: ReasonInvalidToken, Err: err}
	}

	tokenUserID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || tokenUserID != int64(cmd.UserID) {
		return nil, newError(KindAuth, ReasonUserIDMismatch)
	}

	u, err := h.store.FindUser(ctx, tokenUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindAuth, ReasonUserNotFound)
		}
		return nil, internalError(err)
	}
	if !u.IsActive() {
		return nil, newError(KindAuth, ReasonAccountInactive)
	}

	if !conn.authenticate(u.UserID, cmd.UUID) {
		// Another login on this connection won the race.
		return nil, newError(KindAuth, ReasonAlreadyAuthenticated)
	}
	conn.MarkAlive()
	h.registry.Register(u.UserID, conn)

	h.logger.Info("User logged in",
		"userID", u.UserID,
		"fullname", u.Fullname,
		"uuid", cmd.UUID,
		"connection", conn.ID())

	profile := u.Profile()
	return &profile, nil
}
