// middleware/auth.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// PlayerContextMiddleware extracts the caller's wallet address set by the
// Gateway. Secured routes require it; handlers read it from Locals.
func PlayerContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		player := c.Get("X-Player-Address")
		if player == "" {
			log.Printf("❌ [PLAYER_CTX] X-Player-Address required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Player-Address — request must come through gateway with auth context",
			})
		}

		c.Locals("player_address", player)
		return c.Next()
	}
}

// ResolverOnlyMiddleware gates routes that declare outcomes. The caller's
// address (already placed in Locals by PlayerContextMiddleware) must be in
// the configured resolver set.
func ResolverOnlyMiddleware(isResolver func(string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		player, _ := c.Locals("player_address").(string)
		if player == "" || !isResolver(player) {
			log.Printf("🚫 [RESOLVER] %q rejected on %s", player, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "caller is not an authorized resolver",
			})
		}
		return c.Next()
	}
}
