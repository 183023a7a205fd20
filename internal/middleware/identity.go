package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth0ID returns the verified token's sub claim, if the request carried one.
func Auth0ID(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return "", false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
