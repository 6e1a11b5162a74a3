package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/config"
)

// New initializes the Fiber application with config, middlewares, and the
// uniform error envelope.
func New(cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(cors.New())
	app.Use(zapLoggerMiddleware(logger))

	return app
}

// errorHandler renders every error as {"status":"error","message":...},
// with field details for validation failures and a Retry-After for 429s.
// Unexpected errors are logged and answered with a generic 500.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			body := fiber.Map{
				"status":  "error",
				"message": ae.Message,
			}
			if len(ae.Fields) > 0 {
				body["errors"] = ae.Fields
			}
			if ae.RetryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(ae.RetryAfter))
				body["retryAfterSeconds"] = ae.RetryAfter
			}
			return c.Status(ae.Status).JSON(body)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"status":  "error",
				"message": fe.Message,
			})
		}

		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "internal server error",
		})
	}
}

// zapLoggerMiddleware logs incoming HTTP requests using Zap.
func zapLoggerMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}

		if err != nil {
			logger.Error("HTTP Request Error", append(fields, zap.Error(err))...)
			return err
		}

		logger.Info("HTTP Request", fields...)
		return nil
	}
}
