package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/observability"
)

// ServerConfig bundles everything NewApp needs.
type ServerConfig struct {
	AppName        string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
	Routes         RouteConfig
}

// NewApp assembles the fiber application with middlewares and routes.
func NewApp(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.RequestTimeout)
	RegisterRoutes(app, cfg.Routes)
	return app
}

// NewMetricsApp serves only GET /metrics. It is meant for its own listener so
// the counters never share the public port.
func NewMetricsApp(appName string, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName + "-metrics",
		DisableStartupMessage: true,
	})
	app.Get("/metrics", metrics.Handler())
	return app
}
