package service

import (
	"context"
	"time"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

// invalidCredentials is shared by every login failure path so callers cannot
// distinguish an unknown email from a wrong password.
func invalidCredentials() error {
	return util.NewUnauthorized("Invalid email or password")
}

// AuthService coordinates login, refresh and identity flows.
type AuthService struct {
	subjects   repository.SubjectRepository
	tokens     *auth.TokenManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, subjects repository.SubjectRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		subjects:   subjects,
		tokens:     tokens,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// LoginResult carries the issued token pair and the resolved subject.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Subject          *domain.Subject
}

// Login authenticates a subject by email and password and mints both tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	subject, err := s.subjects.GetByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials()
	}
	if !subject.Active {
		return nil, invalidCredentials()
	}
	if err := auth.ComparePassword(subject.PasswordHash, password); err != nil {
		return nil, invalidCredentials()
	}

	accessToken, accessExp, err := s.tokens.Issue(subject.ID, subject.Email, domain.TokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	refreshToken, refreshExp, err := s.tokens.Issue(subject.ID, subject.Email, domain.TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		Subject:          subject,
	}, nil
}

// Refresh mints a new access token from a valid refresh-kind credential. The
// subject must still resolve in the credential store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	identity, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if identity.Kind != domain.TokenKindRefresh {
		return "", time.Time{}, util.NewUnauthorized("Invalid token type")
	}

	subject, err := s.subjects.GetByID(ctx, identity.SubjectID)
	if err != nil {
		return "", time.Time{}, util.NewUnauthorized("Invalid or expired token")
	}
	if !subject.Active {
		return "", time.Time{}, util.NewUnauthorized("Invalid or expired token")
	}

	accessToken, expiresAt, err := s.tokens.Issue(subject.ID, subject.Email, domain.TokenKindAccess, s.accessTTL)
	if err != nil {
		return "", time.Time{}, util.NewInternalError(err)
	}
	return accessToken, expiresAt, nil
}
