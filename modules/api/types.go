package api

import (
	"github.com/example/realestate-chat/domain/user"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse represents the aggregated health of the server.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is the health of one module.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ProfileResponse wraps the authenticated user.
type ProfileResponse struct {
	User user.Profile `json:"user"`
}

// CreateRoomRequest is the body of POST /api/v1/chat/rooms.
type CreateRoomRequest struct {
	ListingID *int64  `json:"listingId"`
	MemberIDs []int64 `json:"memberIds"`
}

// DirectRoomRequest is the body of POST /api/v1/chat/direct.
type DirectRoomRequest struct {
	PeerID    int64  `json:"peerId"`
	ListingID *int64 `json:"listingId"`
}

// PresenceResponse reports whether a user is online.
type PresenceResponse struct {
	UserID  int64 `json:"userId,string"`
	Online  bool  `json:"online"`
	Tracked bool  `json:"tracked"`
}
