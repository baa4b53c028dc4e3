package auth

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/realestate-chat/domain/user"
	"github.com/example/realestate-chat/modules/store"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned when the account is not active.
	ErrAccountInactive = errors.New("account is not active")
	// ErrUserNotFound is returned when the token subject has no account.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	FindUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthService signs marketplace users in and vouches for their tokens.
type AuthService struct {
	users  UserStore
	hasher *PasswordHasher
	tokens *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *PasswordHasher, tokens *JWTManager) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Login checks email and password. Unknown emails and wrong passwords
// both yield ErrInvalidCredentials; a correct password on a non-ACTIVE
// account yields ErrAccountInactive.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrAccountInactive
	}
	return s.tokens.IssuePair(u)
}

// RefreshTokens exchanges a refresh token for a new pair. The account is
// re-read so suspensions take effect at the next refresh.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, kindRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, ErrAccountInactive
	}
	return s.tokens.IssuePair(u)
}

// ValidateToken verifies an access token. It does not touch the store;
// callers that need the account load it with GetUser.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.tokens.Verify(token, kindAccess)
	if err != nil {
		return nil, err
	}
	return &domain.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.FindUser(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}
