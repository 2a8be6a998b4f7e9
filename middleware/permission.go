package middleware

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/authz"
)

// CheckPermissionMiddleware returns a middleware that checks if the caller's
// role grants the required action.
func CheckPermissionMiddleware(required authz.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := Actor(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}
		if !authz.Can(actor, required) {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}
