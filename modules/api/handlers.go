package api

import (
	"log"
	"strconv"
	"strings"

	"github.com/example/realestate-chat/modules/auth"
	"github.com/example/realestate-chat/modules/chat"
	"github.com/example/realestate-chat/modules/notification"
	"github.com/example/realestate-chat/modules/presence"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authAdapter   auth.AuthPort
	chatPort      chat.ChatPort
	presencePort  presence.PresencePort
	notifications notification.NotificationPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, chatPort chat.ChatPort, presencePort presence.PresencePort, notifications notification.NotificationPort) *Handlers {
	return &Handlers{
		authAdapter:   authAdapter,
		chatPort:      chatPort,
		presencePort:  presencePort,
		notifications: notifications,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Email and password are required",
		})
	}

	tokens, err := h.authAdapter.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.JSON(TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	})
}

// Profile handles GET /api/v1/auth/me.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	return c.JSON(ProfileResponse{User: *currentUser(c)})
}

// CreateRoom handles POST /api/v1/chat/rooms.
func (h *Handlers) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	resp, err := h.chatPort.CreateRoom(c.UserContext(), &chat.CreateRoomRequest{
		UserID:    currentUser(c).UserID,
		ListingID: req.ListingID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		return err
	}
	if resp.Failed() {
		return writeFailure(c, resp.Failure)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// DirectRoom handles POST /api/v1/chat/direct.
func (h *Handlers) DirectRoom(c *fiber.Ctx) error {
	var req DirectRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if req.PeerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "peerId is required",
		})
	}

	resp, err := h.chatPort.DirectRoom(c.UserContext(), &chat.DirectRoomRequest{
		UserID:    currentUser(c).UserID,
		PeerID:    req.PeerID,
		ListingID: req.ListingID,
	})
	if err != nil {
		return err
	}
	if resp.Failed() {
		return writeFailure(c, resp.Failure)
	}
	status := fiber.StatusOK
	if resp.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}

// ListRooms handles GET /api/v1/chat/rooms.
func (h *Handlers) ListRooms(c *fiber.Ctx) error {
	resp, err := h.chatPort.ListRooms(c.UserContext(), &chat.ListRoomsRequest{
		UserID: currentUser(c).UserID,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", chat.DefaultPageSize),
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// History handles GET /api/v1/chat/rooms/:roomId/messages.
func (h *Handlers) History(c *fiber.Ctx) error {
	roomID, err := idParam(c, "roomId")
	if err != nil {
		return err
	}

	resp, err := h.chatPort.History(c.UserContext(), &chat.HistoryRequest{
		UserID: currentUser(c).UserID,
		RoomID: roomID,
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", chat.DefaultPageSize),
	})
	if err != nil {
		return err
	}
	if resp.Failed() {
		return writeFailure(c, resp.Failure)
	}
	return c.JSON(resp)
}

// MarkRead handles PUT /api/v1/chat/rooms/:roomId/read.
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	roomID, err := idParam(c, "roomId")
	if err != nil {
		return err
	}

	resp, err := h.chatPort.MarkRead(c.UserContext(), &chat.RoomRequest{
		UserID: currentUser(c).UserID,
		RoomID: roomID,
	})
	if err != nil {
		return err
	}
	if resp.Failed() {
		return writeFailure(c, resp.Failure)
	}
	return c.JSON(resp)
}

// LeaveRoom handles POST /api/v1/chat/rooms/:roomId/leave.
func (h *Handlers) LeaveRoom(c *fiber.Ctx) error {
	roomID, err := idParam(c, "roomId")
	if err != nil {
		return err
	}

	resp, err := h.chatPort.LeaveRoom(c.UserContext(), &chat.RoomRequest{
		UserID: currentUser(c).UserID,
		RoomID: roomID,
	})
	if err != nil {
		return err
	}
	if resp.Failed() {
		return writeFailure(c, resp.Failure)
	}
	return c.JSON(resp)
}

// Notifications handles GET /api/v1/notifications.
func (h *Handlers) Notifications(c *fiber.Ctx) error {
	resp, err := h.notifications.List(c.UserContext(), currentUser(c).UserID, c.QueryInt("limit", notification.DefaultLimit))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Presence handles GET /api/v1/presence/:userId.
func (h *Handlers) Presence(c *fiber.Ctx) error {
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}

	resp, err := h.presencePort.Status(c.UserContext(), []int64{userID})
	if err != nil {
		return err
	}
	return c.JSON(PresenceResponse{
		UserID:  userID,
		Online:  resp.Online[strconv.FormatInt(userID, 10)],
		Tracked: resp.Enabled,
	})
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func writeFailure(c *fiber.Ctx, failure chat.Failure) error {
	status := fiber.StatusBadRequest
	switch failure.Code {
	case chat.CodeNotFound:
		status = fiber.StatusNotFound
	case chat.CodeForbidden:
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   failure.Code,
		Message: failure.Message,
	})
}

// handleAuthError maps auth service errors to HTTP responses. Errors cross
// the service container as text, so they are matched by message.
func handleAuthError(c *fiber.Ctx, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, auth.ErrInvalidCredentials.Error()):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(msg, auth.ErrAccountInactive.Error()):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "Account is not active",
		})
	}
	log.Printf("[api] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
