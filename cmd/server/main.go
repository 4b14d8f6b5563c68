package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps/renovation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps/society"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/uploads"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout, optional rotated file)
	baseHandler := logging.Setup(cfg.LogFile)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Tenant registry
	registry, err := tenant.LoadFromFile(cfg.TenantsConfigPath)
	if err != nil {
		slog.Error("failed to load tenant registry", "path", cfg.TenantsConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("tenant registry loaded", "tenants", len(registry.All()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(baseHandler, pgLogHandler)))

	// Log cleanup
	done := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, done)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	ctx := context.Background()

	// Document store and blob storage
	client, err := docstore.Open(ctx, cfg, database.DB)
	if err != nil {
		slog.Error("document store unavailable", "driver", cfg.DocstoreDriver, "error", err)
		os.Exit(1)
	}
	slog.Info("document store connected", "driver", cfg.DocstoreDriver)

	blobs, err := blob.Open(ctx, cfg)
	if err != nil {
		slog.Error("blob store unavailable", "driver", cfg.BlobDriver, "error", err)
		os.Exit(1)
	}

	// Sessions and metrics
	sessions := session.NewManager(cfg.SessionIdleTimeout)
	sessions.StartSweeper(done)
	m := metrics.New(sessions.Len)

	workspaces := workspace.NewManager(client, workspace.ManagerConfig{
		Known:   registry.Exists,
		Timeout: cfg.DocstoreTimeout,
		Options: func(tenantID string) []entity.Option {
			return []entity.Option{entity.WithObserver(m.ForTenant(tenantID))}
		},
	})
	ids := make([]string, 0, len(registry.All()))
	for _, t := range registry.All() {
		ids = append(ids, t.TenantID)
	}
	if err := workspaces.Warm(ctx, ids); err != nil {
		// Not fatal: the workspace is retried on first request.
		slog.Warn("workspace warm-up failed", "error", err)
	}

	// Services
	validate := validation.New()
	authService := services.NewAuthService(services.NewUserRepository(database.DB), registry, sessions, workspaces, cfg)
	documentService := services.NewDocumentService(uploads.Policy{
		MaxBytes:    cfg.MaxUploadBytes,
		PreviewRows: cfg.SheetPreviewRows,
	}, blobs)

	plugins := []apps.Plugin{
		renovation.New(),
		society.New(),
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		// A multi-file upload carries several files of up to MaxUploadBytes.
		BodyLimit:    int(10 * cfg.MaxUploadBytes),
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(m.Middleware())
	app.Use(middleware.TenantMiddleware(registry))

	// Routes
	routes.Setup(app, apps.Deps{
		Config:     cfg,
		Registry:   registry,
		Workspaces: workspaces,
		Validator:  validate,
		Documents:  documentService,
	}, sessions, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, validate),
		Health:  handlers.NewHealthHandler(registry, database.Ping, cfg.DocstoreDriver),
		Session: handlers.NewSessionHandler(sessions, registry, validate),
		Metrics: m.Handler(),
	}, plugins)
	for _, p := range plugins {
		slog.Info("module mounted", "module", p.ID())
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(done)
	workspaces.Close()
	if err := client.Close(); err != nil {
		slog.Error("document store close error", "error", err)
	}
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}
