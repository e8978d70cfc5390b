package handlers

import (
	"strings"

	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ShopHandler struct {
	svc *services.Services
}

func NewShopHandler(svc *services.Services) *ShopHandler {
	return &ShopHandler{svc: svc}
}

func SetupShopRoutes(router fiber.Router, svc *services.Services) {
	h := NewShopHandler(svc)

	router.Get("/search", h.Search)
	router.Get("/map", h.Map)
	router.Get("/:id", h.Get)
}

// sortQuery reads sortField/sortDirection, or the combined sort=field,dir form
func sortQuery(c *fiber.Ctx) services.ShopSort {
	field, direction := c.Query("sortField"), c.Query("sortDirection")
	if field == "" {
		if combined := c.Query("sort"); combined != "" {
			parts := strings.SplitN(combined, ",", 2)
			field = parts[0]
			if len(parts) == 2 {
				direction = parts[1]
			}
		}
	}
	return services.ParseShopSort(field, direction)
}

// Search godoc
// @Summary Search doll shops
// @Description Operating shops only, with review aggregates and a thumbnail
// @Tags doll-shops
// @Produce json
// @Param region1 query string false "Region level 1"
// @Param region2 query string false "Region level 2"
// @Param keyword query string false "Name or address substring"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size (max 100)"
// @Param sortField query string false "id, averageRating, reviewCount, totalGameMachines, averageMachineStrength, averageLargeCost, averageMediumCost, averageSmallCost"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} services.PageResponse[services.ShopListItem]
// @Router /doll-shops/search [get]
func (h *ShopHandler) Search(c *fiber.Ctx) error {
	filter := services.ShopFilter{
		Region1: c.Query("region1"),
		Region2: c.Query("region2"),
		Keyword: c.Query("keyword"),
	}

	response, err := h.svc.Shops.SearchPage(c.UserContext(), filter, sortQuery(c), pageQuery(c, h.svc))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

// Map godoc
// @Summary Shop markers for the map
// @Tags doll-shops
// @Produce json
// @Param region1 query string false "Region level 1"
// @Param region2 query string false "Region level 2"
// @Success 200 {array} services.ShopMapItem
// @Router /doll-shops/map [get]
func (h *ShopHandler) Map(c *fiber.Ctx) error {
	items, err := h.svc.Shops.SearchForMap(c.UserContext(), services.ShopFilter{
		Region1: c.Query("region1"),
		Region2: c.Query("region2"),
	})
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Get godoc
// @Summary Get doll shop by ID
// @Tags doll-shops
// @Produce json
// @Param id path int true "Shop ID"
// @Success 200 {object} services.ShopDetail
// @Failure 404 {object} ErrorResponse
// @Router /doll-shops/{id} [get]
func (h *ShopHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	shop, err := h.svc.Shops.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(shop)
}
