package handlers

import "github.com/gofiber/fiber/v2"

// Root handles GET /.
func Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to your blog!."})
}
