package middleware

import (
	"strings"

	"github.com/ggorockee/dollcatch/pkg/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	localUserID   = "userID"
	localUsername = "username"
)

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired resolves the caller from a bearer token issued by the auth
// server and stores userID and username in Locals.
func AuthRequired(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
		}

		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
		}

		claims, err := auth.ValidateAccessToken(token, secretKey)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		return c.Next()
	}
}

// OptionalAuth allows both authenticated and unauthenticated requests
func OptionalAuth(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		claims, err := auth.ValidateAccessToken(token, secretKey)
		if err != nil {
			return c.Next()
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		return c.Next()
	}
}

// CurrentUsername returns the username set by AuthRequired
func CurrentUsername(c *fiber.Ctx) (string, bool) {
	username, ok := c.Locals(localUsername).(string)
	return username, ok && username != ""
}

// CurrentUserID returns the user id set by AuthRequired or OptionalAuth
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok
}
