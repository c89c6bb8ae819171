package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/ghost-commit/internal/adapter/ai"
	"github.com/arturoeanton/ghost-commit/internal/adapter/github"
	"github.com/arturoeanton/ghost-commit/internal/adapter/store"
	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/service"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

// app holds the wired services shared by every command.
type app struct {
	cfg        *config.Config
	heuristics config.Heuristics

	github *github.Client
	source port.SourceControl
	llm    port.TextGenerator
	db     *store.PostgresStore

	analysis     *service.AnalysisService
	insight      *service.InsightService
	planner      *service.PlanGenerator
	sessions     port.SessionStore
	sessionSvc   *service.SessionService
	resurrection *service.ResurrectionService

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

// wire builds adapters and services from configuration. Optional backends
// (LLM, Postgres, Redis) are left out when not configured.
func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	h, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, heuristics: h}

	// ── Source control ──────────────────────────────────────────────────
	a.github, err = github.NewClient(github.Options{
		BaseURL:   cfg.GitHubAPIURL,
		Token:     cfg.GitHubToken,
		CacheSize: cfg.GitHubCacheSize,
		CacheTTL:  cfg.GitHubCacheTTL,
		Timeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.source = a.github
	if cfg.DemoMode {
		slog.Info("demo mode: serving a canned repository")
		a.source = github.NewDemoSource()
	}

	// ── Text generation ─────────────────────────────────────────────────
	if cfg.HasLLM() {
		switch cfg.LLMProvider {
		case "gemini":
			g, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return nil, err
			}
			a.llm = g
		default:
			a.llm = ai.NewOllamaProvider(ai.OllamaEndpointConfig{
				BaseURL: cfg.OllamaChatURL,
				Model:   cfg.OllamaChatModel,
				Token:   cfg.OllamaChatToken,
			})
		}
		slog.Info("text generation enabled", "provider", cfg.LLMProvider, "model", a.llm.ModelName())
	} else {
		slog.Info("text generation not configured, using fallback plans")
	}

	// ── Sessions ────────────────────────────────────────────────────────
	switch cfg.SessionBackend {
	case "redis":
		rs, err := store.NewRedisSessionStore(ctx, store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		a.sessions = rs
	case "memory", "":
		a.sessions = store.NewMemorySessionStore(cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	// ── Database (optional) ─────────────────────────────────────────────
	var reports port.ReportStore
	if cfg.DatabaseURL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		reports = db
		slog.Info("database connected", "dsn", cfg.DSN())
	}

	// ── Services ────────────────────────────────────────────────────────
	credentialed := cfg.HasGitHubToken() || cfg.DemoMode
	a.analysis = service.NewAnalysisService(a.source, reports, h, cfg.UpstreamTimeout)
	a.insight = service.NewInsightService(a.source, a.llm, h, credentialed, cfg.UpstreamTimeout)
	a.planner = service.NewPlanGenerator(a.llm, cfg.UpstreamTimeout)
	a.sessionSvc = service.NewSessionService(a.sessions)
	a.resurrection = service.NewResurrectionService(a.source, a.planner, a.sessions, credentialed, cfg.UpstreamTimeout)

	return a, nil
}
