package handlers

import (
	"time"

	"github.com/ggorockee/dollcatch/internal/middleware"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CommunityHandler struct {
	svc *services.Services
}

func NewCommunityHandler(svc *services.Services) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func SetupCommunityRoutes(router fiber.Router, svc *services.Services, authRequired, optionalAuth fiber.Handler) {
	h := NewCommunityHandler(svc)

	router.Get("/", h.List)
	router.Get("/:id", optionalAuth, h.Get)
	router.Post("/", authRequired, h.Create)
	router.Put("/:id", authRequired, h.Update)
	router.Delete("/:id", authRequired, h.Delete)
}

// List godoc
// @Summary List community posts
// @Tags community
// @Produce json
// @Param searchType query string false "title or nickname"
// @Param keyword query string false "Keyword"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} services.PageResponse[services.PostSummary]
// @Router /community [get]
func (h *CommunityHandler) List(c *fiber.Ctx) error {
	response, err := h.svc.Community.List(c.UserContext(),
		services.PostSearchType(c.Query("searchType")),
		c.Query("keyword"),
		pageQuery(c, h.svc),
	)
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// Get godoc
// @Summary Get a post
// @Description Increments the view count. isAuthor is true for the author's own token.
// @Tags community
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} services.PostDetail
// @Router /community/{id} [get]
func (h *CommunityHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.svc.Community.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	if userID, ok := middleware.CurrentUserID(c); ok {
		post.IsAuthor = userID == post.UserID
	}
	return c.JSON(post)
}

// Create godoc
// @Summary Create a post
// @Tags community
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.PostInput true "Post"
// @Success 201 {object} map[string]uint
// @Router /community [post]
func (h *CommunityHandler) Create(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	var req services.PostInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id, err := h.svc.Community.Create(c.UserContext(), username, req, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// Update godoc
// @Summary Update my post
// @Tags community
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body services.PostInput true "Post"
// @Success 200 {object} services.PostDetail
// @Router /community/{id} [put]
func (h *CommunityHandler) Update(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.PostInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := h.svc.Community.Update(c.UserContext(), id, username, req, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// Delete godoc
// @Summary Delete my post
// @Tags community
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Router /community/{id} [delete]
func (h *CommunityHandler) Delete(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Community.Delete(c.UserContext(), id, username, time.Now()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
