package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/VKx64/Farely-Backend/internal/handlers"
	"github.com/VKx64/Farely-Backend/internal/middleware"
	"github.com/VKx64/Farely-Backend/internal/repository"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

// Setup wires the route table. The health check sits outside the general
// rate limiter; every other route passes through it.
func Setup(
	app *fiber.App,
	ah *handlers.AuthHandler,
	uh *handlers.UserHandler,
	general fiber.Handler,
	jwt *utils.JWTManager,
	userRepo repository.UserRepository,
) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := middleware.RequireAuth(jwt, userRepo)
	admin := middleware.RequireAdmin()

	api := app.Group("/api/v1", general)
	users := api.Group("/users")

	users.Post("/register", ah.Register)
	users.Post("/verify-otp", ah.VerifyOTP)
	users.Post("/resend-otp", ah.ResendOTP)
	users.Post("/complete-profile", ah.CompleteProfile)
	users.Post("/login", ah.Login)

	users.Get("/profile", auth, uh.GetProfile)
	users.Put("/profile", auth, uh.UpdateProfile)

	users.Get("/", auth, admin, uh.ListUsers)
	users.Delete("/:userId", auth, admin, uh.DeleteUser)
}
