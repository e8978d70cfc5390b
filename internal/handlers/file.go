package handlers

import (
	"strings"
	"time"

	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	svc *services.Services
}

func NewFileHandler(svc *services.Services) *FileHandler {
	return &FileHandler{svc: svc}
}

func SetupFileRoutes(router fiber.Router, svc *services.Services, authRequired fiber.Handler) {
	h := NewFileHandler(svc)

	router.Get("/", h.List)
	router.Get("/thumbnail", h.Thumbnail)
	router.Post("/", authRequired, h.Register)
}

func refQuery(c *fiber.Ctx) (models.RefType, uint, error) {
	refType := models.RefType(strings.ToUpper(c.Query("refType")))
	if !refType.Valid() {
		return "", 0, services.Validation("invalid refType")
	}
	refID := c.QueryInt("refId", 0)
	if refID <= 0 {
		return "", 0, services.Validation("invalid refId")
	}
	return refType, uint(refID), nil
}

// List godoc
// @Summary Files attached to an entity
// @Tags files
// @Produce json
// @Param refType query string true "DOLL_SHOP, REVIEW or COMMUNITY"
// @Param refId query int true "Entity ID"
// @Param usage query string false "THUMBNAIL, IMAGES or ATTACHMENT"
// @Success 200 {array} services.FileDTO
// @Router /files [get]
func (h *FileHandler) List(c *fiber.Ctx) error {
	refType, refID, err := refQuery(c)
	if err != nil {
		return err
	}
	usage := models.FileUsage(strings.ToUpper(c.Query("usage")))
	if usage != "" && !usage.Valid() {
		return services.Validation("invalid usage")
	}

	files, err := h.svc.Files.Files(c.UserContext(), refType, refID, usage)
	if err != nil {
		return err
	}
	return c.JSON(files)
}

// Thumbnail godoc
// @Summary Thumbnail URL of an entity
// @Description Falls back to the placeholder image
// @Tags files
// @Produce json
// @Param refType query string true "DOLL_SHOP, REVIEW or COMMUNITY"
// @Param refId query int true "Entity ID"
// @Success 200 {object} map[string]string
// @Router /files/thumbnail [get]
func (h *FileHandler) Thumbnail(c *fiber.Ctx) error {
	refType, refID, err := refQuery(c)
	if err != nil {
		return err
	}

	url, err := h.svc.Files.Thumbnail(c.UserContext(), refType, refID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"url": url})
}

// Register godoc
// @Summary Register an uploaded file
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.FileInput true "File metadata"
// @Success 201 {object} services.FileDTO
// @Router /files [post]
func (h *FileHandler) Register(c *fiber.Ctx) error {
	username, err := currentUsername(c)
	if err != nil {
		return err
	}

	var req services.FileInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	file, err := h.svc.Files.Register(c.UserContext(), username, req, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}
