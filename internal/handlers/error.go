package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/ggorockee/dollcatch/internal/middleware"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents an error response. Code is machine readable,
// e.g. "not_found" or a rule id such as "review.daily_limit".
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorHandler is the custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal"
	message := "Internal Server Error"

	var fe *fiber.Error
	var rv *services.RuleViolation
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		code = statusCode(fe.Code)
		message = fe.Message
	case errors.As(err, &rv):
		status = fiber.StatusConflict
		code = rv.Rule
		message = rv.Message
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
		code = "not_found"
		message = err.Error()
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
		code = "validation"
		message = err.Error()
	case errors.Is(err, services.ErrPermissionDenied):
		status = fiber.StatusForbidden
		code = "permission_denied"
		message = err.Error()
	default:
		logger.GetLogger("http").Errorw("unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err,
		)
	}

	middleware.ObserveError(code, status)
	return c.Status(status).JSON(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// statusCode turns 401 into "unauthorized"
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
