package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/internal/api/dto"
	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/service"
	"github.com/spec-kit/auth-gateway/internal/validate"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

// AuthHandler exposes the login, refresh and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	req := validate.BodyOf[dto.LoginRequest](c)

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Subject: dto.SubjectResponse{
			ID:    result.Subject.ID,
			Label: result.Subject.Email,
		},
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	req := validate.BodyOf[dto.RefreshRequest](c)

	accessToken, _, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(dto.RefreshResponse{AccessToken: accessToken})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return util.NewUnauthorized("Authorization header is required")
	}

	return c.JSON(dto.IdentityResponse{
		SubjectID:    identity.SubjectID,
		SubjectLabel: identity.SubjectLabel,
	})
}
