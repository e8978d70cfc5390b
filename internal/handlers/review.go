package handlers

import (
	"time"

	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	svc *services.Services
}

func NewReviewHandler(svc *services.Services) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func SetupReviewRoutes(router fiber.Router, svc *services.Services, authRequired fiber.Handler) {
	h := NewReviewHandler(svc)

	router.Get("/doll-shop/:shopId", h.ListByShop)
	router.Get("/doll-shop/:shopId/stats", h.Stats)
	router.Get("/me", authRequired, h.ListMine)
	router.Post("/", authRequired, h.Create)
	router.Put("/:id", authRequired, h.Update)
	router.Delete("/:id", authRequired, h.Delete)
}

type CreateReviewRequest struct {
	DollShopID uint `json:"dollShopId" validate:"required"`
	services.ReviewInput
}

// ListByShop godoc
// @Summary List reviews of a shop
// @Tags reviews
// @Produce json
// @Param shopId path int true "Shop ID"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} services.PageResponse[services.ReviewDTO]
// @Router /reviews/doll-shop/{shopId} [get]
func (h *ReviewHandler) ListByShop(c *fiber.Ctx) error {
	shopID, err := paramID(c, "shopId")
	if err != nil {
		return err
	}

	response, err := h.svc.Reviews.ListByShop(c.UserContext(), shopID, pageQuery(c, h.svc))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// Stats godoc
// @Summary Review statistics of a shop
// @Tags reviews
// @Produce json
// @Param shopId path int true "Shop ID"
// @Success 200 {object} services.ReviewAggregate
// @Router /reviews/doll-shop/{shopId}/stats [get]
func (h *ReviewHandler) Stats(c *fiber.Ctx) error {
	shopID, err := paramID(c, "shopId")
	if err != nil {
		return err
	}

	stats, err := h.svc.Reviews.Stats(c.UserContext(), shopID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// ListMine godoc
// @Summary List my reviews
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.PageResponse[services.ReviewDTO]
// @Router /reviews/me [get]
func (h *ReviewHandler) ListMine(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	response, err := h.svc.Reviews.ListMine(c.UserContext(), username, pageQuery(c, h.svc))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// Create godoc
// @Summary Submit a review
// @Description One live review per user, shop and day
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} services.ReviewDTO
// @Failure 409 {object} ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	var req CreateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, err := h.svc.Reviews.SubmitReview(c.UserContext(), username, req.DollShopID, req.ReviewInput, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// Update godoc
// @Summary Update my review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body services.ReviewInput true "Review"
// @Success 200 {object} services.ReviewDTO
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req services.ReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	review, err := h.svc.Reviews.UpdateReview(c.UserContext(), id, username, req, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(review)
}

// Delete godoc
// @Summary Delete my review
// @Tags reviews
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 204
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Reviews.DeleteReview(c.UserContext(), id, username, time.Now()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
