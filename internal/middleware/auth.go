package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/repository"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

const userLocalKey = "authUser"

// RequireAuth extracts a bearer token, verifies it, and resolves the caller
// to a stored account. The resolved user is attached to the request for
// downstream handlers; nothing is ever written to the store here.
func RequireAuth(jwt *utils.JWTManager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Auth("no token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.Auth("invalid token")
		}

		claims, err := jwt.Parse(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				return apperr.Auth("token expired")
			}
			return apperr.Auth("invalid token")
		}

		user, err := userRepo.FindByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				// deleted or revoked account carrying a still-valid token
				return apperr.Auth("user not found")
			}
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireAdmin allows only authenticated admins through. Must run after
// RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := UserFromCtx(c)
		if user == nil {
			return apperr.Auth("no token")
		}
		if user.Role != models.RoleAdmin {
			return apperr.Forbidden("admin access required")
		}
		return c.Next()
	}
}

// UserFromCtx returns the account RequireAuth resolved, or nil.
func UserFromCtx(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
