package handlers

import (
	"time"

	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	svc *services.Services
}

func NewCommentHandler(svc *services.Services) *CommentHandler {
	return &CommentHandler{svc: svc}
}

func SetupCommentRoutes(router fiber.Router, svc *services.Services, authRequired fiber.Handler) {
	h := NewCommentHandler(svc)

	router.Get("/community/:postId", h.ListByPost)
	router.Post("/", authRequired, h.Create)
	router.Put("/:id", authRequired, h.Update)
	router.Delete("/:id", authRequired, h.Delete)
}

type CreateCommentRequest struct {
	CommunityID uint   `json:"communityId" validate:"required"`
	Content     string `json:"content" validate:"required,max=1000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// ListByPost godoc
// @Summary List comments of a post
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} services.PageResponse[services.CommentDTO]
// @Router /comments/community/{postId} [get]
func (h *CommentHandler) ListByPost(c *fiber.Ctx) error {
	postID, err := paramID(c, "postId")
	if err != nil {
		return err
	}

	response, err := h.svc.Comments.ListByPost(c.UserContext(), postID, pageQuery(c, h.svc))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// Create godoc
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} services.CommentDTO
// @Router /comments [post]
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	var req CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := h.svc.Comments.Create(c.UserContext(), username, req.CommunityID, req.Content, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// Update godoc
// @Summary Update my comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body UpdateCommentRequest true "Comment"
// @Success 200 {object} services.CommentDTO
// @Router /comments/{id} [put]
func (h *CommentHandler) Update(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := h.svc.Comments.Update(c.UserContext(), id, username, req.Content, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(comment)
}

// Delete godoc
// @Summary Delete my comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Comments.Delete(c.UserContext(), id, username, time.Now()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
