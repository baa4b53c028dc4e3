package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realestate-chat/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is what other modules need from auth.
type AuthPort interface {
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID int64) (*domain.Profile, error)
}

// AuthAdapter implements AuthPort over the auth module's services. It also
// serves the websocket login as a token verifier.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

func request[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	var tokens domain.TokenPair
	if err := request(ctx, a.container, ServiceLogin, &LoginRequest{Email: email, Password: password}, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	var resp ValidateTokenResponse
	if err := request(ctx, a.container, ServiceValidateToken, &ValidateTokenRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Reason)
	}
	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, nil
}

// VerifyToken validates a token and returns its subject.
func (a *AuthAdapter) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := a.ValidateToken(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetUser retrieves the public profile of a user.
func (a *AuthAdapter) GetUser(ctx context.Context, userID int64) (*domain.Profile, error) {
	var resp GetUserResponse
	if err := request(ctx, a.container, ServiceGetUser, &GetUserRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
