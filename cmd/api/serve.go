package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/joshliford/amplify-guitar/internal/api/http"
	"github.com/joshliford/amplify-guitar/internal/api/http/handlers"
	"github.com/joshliford/amplify-guitar/internal/auth"
	"github.com/joshliford/amplify-guitar/internal/config"
	"github.com/joshliford/amplify-guitar/internal/events"
	"github.com/joshliford/amplify-guitar/internal/observability"
	"github.com/joshliford/amplify-guitar/internal/persistence"
	"github.com/joshliford/amplify-guitar/internal/repository"
	"github.com/joshliford/amplify-guitar/internal/service"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// loadConfig reads and validates configuration. Any failure stops startup.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The signing key is checked before any connection is opened.
	tokens, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime())
	if err != nil {
		return fmt.Errorf("init token codec: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	var userRepo repository.UserRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		userRepo = repository.NewUserRepository(pg.Pool)
	} else {
		logger.Warn("using in-memory user store; data is lost on exit")
		userRepo = repository.NewMemoryUserRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	var attempts auth.AttemptStore
	if store := persistence.NewAttemptStore(redis); store != nil {
		attempts = store
	}

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Tokens:     tokens,
		Limiter:    auth.NewLoginLimiter(attempts, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow()),
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	progressService := service.NewProgressService(userRepo, dispatcher, logger)

	deps := []handlers.Dependency{{Name: "postgres"}, {Name: "redis"}}
	if pg.Enabled() {
		deps[0].Check = pg
	}
	if redis != nil {
		deps[1].Check = redis
	}

	app := httptransport.NewApp(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps...),
			Auth:   handlers.NewAuthHandler(authService),
			Users:  handlers.NewUsersHandler(progressService),
			Gate:   auth.NewGate(tokens, auth.NewIdentityResolver(userRepo), logger, metrics),
			Policy: auth.DefaultPolicy(),
		},
	})

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	var metricsApp *fiber.App
	if cfg.App.MetricsAddr != "" {
		metricsApp = httptransport.NewMetricsApp(cfg.App.Name, metrics)
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.App.MetricsAddr))
			errCh <- metricsApp.Listen(cfg.App.MetricsAddr)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	}

	if metricsApp != nil {
		if err := metricsApp.Shutdown(); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}
	return app.Shutdown()
}
