package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/example/realestate-chat/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, forged or misused tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// tokenKind is carried in the "kind" claim so a refresh token cannot
// be presented where an access token is expected.
type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

const clockSkew = 5 * time.Second

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultJWTConfig returns the development configuration. JWT_SECRET_KEY
// must be set outside development.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:  "dev-only-secret",
		Issuer:     "realestate-chat",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// TokenClaims are the claims of tokens signed by JWTManager.
// Subject is the decimal user ID.
type TokenClaims struct {
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
	Kind  tokenKind   `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *TokenClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	config JWTConfig
	key    []byte
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTManager creates a JWTManager for the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
		key:    []byte(config.SecretKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(clockSkew),
		),
		now: time.Now,
	}
}

// IssuePair signs an access and a refresh token for u.
func (m *JWTManager) IssuePair(u *domain.User) (*domain.TokenPair, error) {
	now := m.now()

	access, err := m.sign(u, kindAccess, now, m.config.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(u, kindRefresh, now, m.config.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.config.AccessTTL / time.Second),
		TokenType:    "Bearer",
	}, nil
}

func (m *JWTManager) sign(u *domain.User, kind tokenKind, now time.Time, ttl time.Duration) (string, error) {
	claims := TokenClaims{
		Email: u.Email,
		Role:  u.PrimaryRole,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(u.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Verify parses tokenString and checks that it may be used as kind.
// Tokens without a kind claim, as minted by the marketplace's other
// services, are accepted as access tokens.
func (m *JWTManager) Verify(tokenString string, kind tokenKind) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind && !(kind == kindAccess && claims.Kind == "") {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
