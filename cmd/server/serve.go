package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/arturoeanton/ghost-commit/internal/handler"
	"github.com/arturoeanton/ghost-commit/internal/mcp"
	"github.com/arturoeanton/ghost-commit/internal/middleware"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("🚀 Starting Ghost Commit",
		"port", cfg.Port,
		"github_token", cfg.HasGitHubToken(),
		"llm", cfg.HasLLM(),
		"sessions", cfg.SessionBackend,
		"database", a.db != nil,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	if a.db != nil {
		app.Use(middleware.AuditMiddleware(a.db))
	}

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api")

	handler.NewHealthHandler(fiber.Map{
		"app":          cfg.AppName,
		"github_token": cfg.HasGitHubToken(),
		"llm":          cfg.HasLLM(),
		"demo":         cfg.DemoMode,
	}).Register(api)
	handler.NewAnalysisHandler(a.analysis, a.insight).Register(api)
	handler.NewResurrectHandler(a.resurrection).Register(api)
	handler.NewStatusHandler(a.sessionSvc).Register(api)
	handler.NewReportsHandler(a.analysis).Register(api)
	if a.db != nil {
		handler.NewAuditHandler(a.db).Register(api)
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		var audit mcp.AuditWriter
		if a.db != nil {
			audit = a.db
		}
		mcpServer := mcp.NewServer(a.analysis, a.resurrection, a.sessionSvc, audit, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(ctx); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
}
