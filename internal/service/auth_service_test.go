package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/config"
	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/repository"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "correct-horse-battery"
)

func newTestService(t *testing.T) (*AuthService, *domain.Subject, *auth.TokenManager, repository.SubjectRepository) {
	t.Helper()

	subjects := repository.NewMemorySubjectRepository()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)

	subject := &domain.Subject{Email: "u1@example.com", PasswordHash: hash, Active: true}
	require.NoError(t, subjects.Create(context.Background(), subject))

	tokens, err := auth.NewTokenManager(testSecret)
	require.NoError(t, err)

	svc := NewAuthService(config.AuthConfig{
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 168 * time.Hour,
	}, subjects, tokens)
	return svc, subject, tokens, subjects
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, subject, tokens, _ := newTestService(t)

	result, err := svc.Login(context.Background(), "u1@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, subject.ID, result.Subject.ID)

	accessIdentity, err := tokens.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindAccess, accessIdentity.Kind)
	assert.Equal(t, subject.ID, accessIdentity.SubjectID)
	assert.Equal(t, "u1@example.com", accessIdentity.SubjectLabel)

	refreshIdentity, err := tokens.Verify(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindRefresh, refreshIdentity.Kind)

	assert.True(t, result.RefreshExpiresAt.After(result.AccessExpiresAt))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, unknownErr := svc.Login(context.Background(), "ghost@example.com", testPassword)
	require.Error(t, unknownErr)
	_, wrongErr := svc.Login(context.Background(), "u1@example.com", "wrong-password")
	require.Error(t, wrongErr)

	assert.True(t, util.IsKind(unknownErr, util.KindUnauthorized))
	assert.True(t, util.IsKind(wrongErr, util.KindUnauthorized))
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginIsCaseSensitiveOnEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "U1@Example.com", testPassword)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestLoginRejectsInactiveSubject(t *testing.T) {
	svc, _, _, subjects := newTestService(t)

	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)
	inactive := &domain.Subject{Email: "off@example.com", PasswordHash: hash, Active: false}
	require.NoError(t, subjects.Create(context.Background(), inactive))

	_, err = svc.Login(context.Background(), "off@example.com", testPassword)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	svc, subject, tokens, _ := newTestService(t)

	result, err := svc.Login(context.Background(), "u1@example.com", testPassword)
	require.NoError(t, err)

	accessToken, expiresAt, err := svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	identity, err := tokens.Verify(accessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindAccess, identity.Kind)
	assert.Equal(t, subject.ID, identity.SubjectID)
}

func TestRefreshRejectsAccessKind(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	result, err := svc.Login(context.Background(), "u1@example.com", testPassword)
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), result.AccessToken)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
	assert.Contains(t, err.Error(), "Invalid token type")
}

func TestRefreshRejectsUnresolvableSubject(t *testing.T) {
	svc, _, tokens, _ := newTestService(t)

	// Valid refresh credential for a subject the store no longer resolves.
	orphan, _, err := tokens.Issue("gone", "gone@example.com", domain.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), orphan)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, err := svc.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}
