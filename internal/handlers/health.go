package handlers

import (
	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/gofiber/fiber/v2"
)

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}

// Liveness reports that the process serves requests
func Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessCheck godoc
// @Summary Readiness probe
// @Description Pings the database
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readiness [get]
func ReadinessCheck(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unavailable",
				"database": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "database": "ok"})
	}
}
