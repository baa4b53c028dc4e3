package realtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-monolith/mono/pkg/types"
)

// Handler decodes inbound frames and runs the matching command.
type Handler struct {
	registry  *Registry
	store     Store
	verifier  TokenVerifier
	publisher MessagePublisher
	logger    types.Logger
}

// NewHandler creates a command handler. publisher may be nil.
func NewHandler(registry *Registry, store Store, verifier TokenVerifier, publisher MessagePublisher, logger types.Logger) *Handler {
	return &Handler{
		registry:  registry,
		store:     store,
		verifier:  verifier,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle processes one frame received on conn. Every failure is answered on
// conn; nothing here closes the connection.
func (h *Handler) Handle(ctx context.Context, conn *Connection, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.fail(conn, "", internalError(fmt.Errorf("panic: %v", r)))
		}
	}()

	if !conn.Allow() {
		h.fail(conn, "", newError(KindProtocol, ReasonRateLimited))
		return
	}

	cmd, err := DecodeCommand(frame)
	if err != nil {
		var cerr *CommandError
		if !errors.As(err, &cerr) {
			cerr = &CommandError{Kind: KindProtocol, Reason: ReasonInvalidFormat, Err: err}
		}
		h.fail(conn, "", cerr)
		return
	}

	switch c := cmd.(type) {
	case LoginCommand:
		profile, cerr := h.login(ctx, conn, c)
		if cerr != nil {
			h.fail(conn, CommandLogin, cerr)
			return
		}
		h.reply(conn, LoginSuccessFrame{
			Command: CommandLogin,
			Result:  ResultSuccess,
			User:    *profile,
		})
	case MessageCommand:
		if cerr := h.message(ctx, conn, c); cerr != nil {
			h.fail(conn, CommandMessage, cerr)
		}
	default:
		h.fail(conn, "", newError(KindProtocol, ReasonUnknownCommand))
	}
}

func (h *Handler) reply(conn *Connection, v any) {
	if err := conn.Send(v); err != nil {
		h.logger.Debug("Failed to send reply", "connection", conn.ID(), "error", err)
	}
}

func (h *Handler) fail(conn *Connection, command string, err *CommandError) {
	if err.Kind == KindInternal {
		h.logger.Error("Command failed",
			"connection", conn.ID(),
			"command", command,
			"error", err.Err)
	} else {
		h.logger.Debug("Command rejected",
			"connection", conn.ID(),
			"command", command,
			"kind", err.Kind.String(),
			"reason", err.Reason)
	}
	h.reply(conn, failure(command, err))
}
