package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

// TokenManager issues and verifies signed, time-bounded credentials.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a new manager. An empty secret is a configuration
// defect and is rejected here rather than per request.
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is not configured")
	}
	return &TokenManager{secret: []byte(secret), now: time.Now}, nil
}

// Claims describes the JWT payload. The signature binds every field; any
// tampering invalidates the credential.
type Claims struct {
	Label string           `json:"label,omitempty"`
	Kind  domain.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Issue builds and signs a credential of the given kind. The TTL is resolved
// once here into an absolute expiry.
func (tm *TokenManager) Issue(subjectID, subjectLabel string, kind domain.TokenKind, ttl time.Duration) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Label: subjectLabel,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates the signature and expiry and returns the caller identity.
// It deliberately does not check the token kind; callers decide which kinds
// they accept.
func (tm *TokenManager) Verify(tokenStr string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return domain.Identity{}, util.NewUnauthorized("Invalid or expired token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, util.NewUnauthorized("Invalid or expired token")
	}
	return identityFromClaims(claims), nil
}

// Decode parses a credential without verifying it. Diagnostics only; never
// use the result for authorization decisions.
func (tm *TokenManager) Decode(tokenStr string) (domain.Identity, bool) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return domain.Identity{}, false
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Identity{}, false
	}
	return identityFromClaims(claims), true
}

func identityFromClaims(claims *Claims) domain.Identity {
	return domain.Identity{
		SubjectID:    claims.Subject,
		SubjectLabel: claims.Label,
		Kind:         claims.Kind,
	}
}
