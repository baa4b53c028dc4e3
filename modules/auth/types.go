package auth

import (
	domain "github.com/example/realestate-chat/domain/user"
)

// Service names registered by the auth module.
const (
	ServiceLogin         = "login"
	ServiceRefreshToken  = "refresh-token"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
)

// LoginRequest carries the credentials of a login attempt.
// The reply is a domain.TokenPair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest carries an access token to verify.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse reports the outcome of a verification. A rejected
// token is a normal reply with Valid false and Reason set.
type ValidateTokenResponse struct {
	Valid  bool        `json:"valid"`
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// GetUserRequest asks for one account by ID.
type GetUserRequest struct {
	UserID int64 `json:"user_id,string"`
}

// GetUserResponse carries the public profile of a user.
type GetUserResponse struct {
	User domain.Profile `json:"user"`
}
