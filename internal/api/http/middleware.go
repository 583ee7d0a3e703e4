package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/observability"
	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

// RegisterMiddlewares installs the chain that every request passes before the
// auth gate: request id, deadline, access log, error envelope, panic recovery.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	if timeout > 0 {
		app.Use(deadline(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorEnvelope(logger, metrics))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, r any) {
			logger.Error("panic recovered",
				zap.String("path", c.Path()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		},
	}))
}

// deadline bounds the request's user context, which the repositories honor.
func deadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorEnvelope renders any error returned further down the chain as
// {"error":{"code","message","details"}}.
func errorEnvelope(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		de := apperrors.ToDomainError(err)
		metrics.RecordError(observability.RouteLabel(c), observability.MethodLabel(c), de.Code)
		if de.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals(requestid.ConfigDefault.ContextKey)),
				zap.Error(err))
		}
		return writeError(c, de)
	}
}

func writeError(c *fiber.Ctx, de *apperrors.DomainError) error {
	body := fiber.Map{"code": de.Code, "message": de.Message}
	if len(de.Details) > 0 {
		body["details"] = de.Details
	}
	return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": body})
}
