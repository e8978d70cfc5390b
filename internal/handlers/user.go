package handlers

import (
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	svc *services.Services
}

func NewUserHandler(svc *services.Services) *UserHandler {
	return &UserHandler{svc: svc}
}

func SetupUserRoutes(router fiber.Router, svc *services.Services) {
	h := NewUserHandler(svc)

	router.Get("/me", h.GetMe)
}

// GetMe godoc
// @Summary Get current user info
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	user, err := h.svc.Users.GetByUsername(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
