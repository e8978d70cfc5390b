package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ggorockee/dollcatch/internal/middleware"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes the JSON body into dst and checks its validate tags
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return services.Validation("malformed request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Param() != "" {
				return services.Validation("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
			}
			return services.Validation("%s failed %s", fe.Field(), fe.Tag())
		}
		return services.Validation("%v", err)
	}
	return nil
}

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, services.Validation("invalid %s", name)
	}
	return uint(id), nil
}

// currentUsername reads the identity set by middleware.AuthRequired
func currentUsername(c *fiber.Ctx) (string, error) {
	username, ok := middleware.CurrentUsername(c)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	return username, nil
}

// pageQuery reads page and size query values, clamped by svc
func pageQuery(c *fiber.Ctx, svc *services.Services) services.Page {
	return svc.Page(c.QueryInt("page", 0), c.QueryInt("size", services.DefaultPageSize))
}
