package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	domain "github.com/example/realestate-chat/domain/user"
	"github.com/example/realestate-chat/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// AuthModule provides token and account services.
type AuthModule struct {
	storeModule *store.Module
	jwtConfig   JWTConfig
	hasher      *PasswordHasher
	service     *AuthService
	logger      types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*AuthModule)(nil)
	_ mono.DependentModule       = (*AuthModule)(nil)
	_ mono.ServiceProviderModule = (*AuthModule)(nil)
	_ mono.HealthCheckableModule = (*AuthModule)(nil)
)

// NewModule creates a new AuthModule backed by the store module.
func NewModule(storeModule *store.Module, jwtConfig JWTConfig, logger types.Logger) *AuthModule {
	return &AuthModule{
		storeModule: storeModule,
		jwtConfig:   jwtConfig,
		hasher:      NewPasswordHasher(),
		logger:      logger,
	}
}

// WithPasswordHasher replaces the default hasher. Call before Start.
func (m *AuthModule) WithPasswordHasher(hasher *PasswordHasher) *AuthModule {
	m.hasher = hasher
	return m
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Dependencies returns the list of module dependencies.
func (m *AuthModule) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer is a no-op; the store is reached through the module handle.
func (m *AuthModule) SetDependencyServiceContainer(_ string, _ mono.ServiceContainer) {}

// Start builds the auth service on the store repository.
func (m *AuthModule) Start(_ context.Context) error {
	repo := m.storeModule.Repository()
	if repo == nil {
		return fmt.Errorf("store repository not initialized")
	}
	if m.jwtConfig.SecretKey == DefaultJWTConfig().SecretKey {
		m.logger.Warn("JWT_SECRET_KEY not set, using the development secret")
	}

	m.service = NewAuthService(repo, m.hasher, NewJWTManager(m.jwtConfig))
	m.logger.Info("Auth module started",
		"issuer", m.jwtConfig.Issuer,
		"accessTTL", m.jwtConfig.AccessTTL,
		"bcryptCost", m.hasher.Cost())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
		Details: map[string]any{
			"issuer": m.jwtConfig.Issuer,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceLogin, ServiceRefreshToken, ServiceValidateToken, ServiceGetUser})
	return nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (domain.TokenPair, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return *tokens, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (domain.TokenPair, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return *tokens, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		reason := ErrInvalidToken.Error()
		if errors.Is(err, ErrExpiredToken) {
			reason = ErrExpiredToken.Error()
		}
		return ValidateTokenResponse{Reason: reason}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	u, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: u.Profile()}, nil
}

// LoadJWTConfig reads JWT_SECRET_KEY, JWT_ISSUER, JWT_ACCESS_TTL and
// JWT_REFRESH_TTL over the defaults.
func LoadJWTConfig() JWTConfig {
	config := DefaultJWTConfig()

	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.SecretKey = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}
	if ttl, err := time.ParseDuration(os.Getenv("JWT_ACCESS_TTL")); err == nil && ttl > 0 {
		config.AccessTTL = ttl
	}
	if ttl, err := time.ParseDuration(os.Getenv("JWT_REFRESH_TTL")); err == nil && ttl > 0 {
		config.RefreshTTL = ttl
	}
	return config
}
