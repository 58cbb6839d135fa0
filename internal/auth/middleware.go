package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/internal/pathmatch"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

const identityKey = "auth_identity"

// Middleware enforces bearer authentication for every request whose path is
// not on the exclusion list.
type Middleware struct {
	tokens *TokenManager
	skip   pathmatch.Matcher
}

// NewMiddleware constructs the enforcement middleware with a static
// exclusion list.
func NewMiddleware(tokens *TokenManager, excludedPaths []string) *Middleware {
	return &Middleware{tokens: tokens, skip: pathmatch.Prefixes(excludedPaths)}
}

// Handle gates protected routes. Excluded paths pass through with no
// identity attached; everything else requires a valid access-kind credential.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if m.skip.Matches(c.Path()) {
		return c.Next()
	}

	token, state := parseBearer(c.Get(fiber.HeaderAuthorization))
	switch state {
	case bearerAbsent:
		return util.NewUnauthorized("Authorization header is required")
	case bearerMalformed:
		return util.NewUnauthorized("Authorization header must be: Bearer <token>")
	}

	identity, err := m.tokens.Verify(token)
	if err != nil {
		if util.IsKind(err, util.KindUnauthorized) {
			return err
		}
		// Verification failures never leak internal detail.
		return util.NewUnauthorized("Invalid or expired token")
	}

	if identity.Kind != domain.TokenKindAccess {
		return util.NewUnauthorized("Invalid token type")
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller, if any.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}
