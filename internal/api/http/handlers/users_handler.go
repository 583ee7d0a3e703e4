package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/joshliford/amplify-guitar/internal/api/dto"
	"github.com/joshliford/amplify-guitar/internal/auth"
	"github.com/joshliford/amplify-guitar/internal/service"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

// UsersHandler serves the authenticated user's own resources.
type UsersHandler struct {
	progress *service.ProgressService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(progress *service.ProgressService) *UsersHandler {
	return &UsersHandler{progress: progress}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.progress.Profile(c.UserContext(), id.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateMe handles PATCH /api/users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.progress.UpdateProfile(c.UserContext(), id.Username, service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteMe handles DELETE /api/users/me.
func (h *UsersHandler) DeleteMe(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.progress.DeleteAccount(c.UserContext(), id.Username); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddXP handles POST /api/users/me/xp.
func (h *UsersHandler) AddXP(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.AddXPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.progress.AddXP(c.UserContext(), id.Username, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// IncrementStreak handles POST /api/users/me/streak.
func (h *UsersHandler) IncrementStreak(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.progress.IncrementStreak(c.UserContext(), id.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// identity reads the caller established by the auth gate.
func identity(c *fiber.Ctx) (*auth.Identity, error) {
	id, ok := auth.IdentityFromFiber(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return id, nil
}
