package config

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port        string
	AppName     string
	FrontendURL string

	// GitHub
	GitHubToken     string
	GitHubAPIURL    string
	GitHubCacheSize int
	GitHubCacheTTL  time.Duration

	// LLM
	LLMProvider     string // ollama or gemini
	OllamaChatURL   string // empty = not configured
	OllamaChatModel string
	OllamaChatToken string // Bearer token for Ollama Cloud (empty = local)
	GeminiAPIKey    string
	GeminiModel     string

	UpstreamTimeout time.Duration

	// Sessions
	SessionBackend string // memory or redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionTTL     time.Duration

	// Database (optional; enables reports and audit log)
	DatabaseURL string

	DemoMode       bool
	HeuristicsFile string

	// PR engine
	WorkDir    string
	NPMInstall bool

	// MCP
	MCPEnabled bool
	MCPPort    string

	// Logging
	LogFormat string // text or json
	LogLevel  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envOrDefault("PORT", "3001"),
		AppName:     envOrDefault("APP_NAME", "Ghost Commit"),
		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),

		GitHubToken:     os.Getenv("GITHUB_TOKEN"),
		GitHubAPIURL:    envOrDefault("GITHUB_API_URL", "https://api.github.com"),
		GitHubCacheSize: envOrDefaultInt("GITHUB_CACHE_SIZE", 512),
		GitHubCacheTTL:  envOrDefaultDuration("GITHUB_CACHE_TTL", 5*time.Minute),

		LLMProvider:     envOrDefault("LLM_PROVIDER", "ollama"),
		OllamaChatURL:   os.Getenv("OLLAMA_CHAT_URL"),
		OllamaChatModel: envOrDefault("OLLAMA_CHAT_MODEL", "qwen3"),
		OllamaChatToken: os.Getenv("OLLAMA_CHAT_TOKEN"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

		UpstreamTimeout: envOrDefaultDuration("UPSTREAM_TIMEOUT", 30*time.Second),

		SessionBackend: envOrDefault("SESSION_BACKEND", "memory"),
		RedisAddr:      envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envOrDefaultInt("REDIS_DB", 0),
		SessionTTL:     envOrDefaultDuration("SESSION_TTL", 24*time.Hour),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		DemoMode:       envOrDefaultBool("DEMO_MODE", false),
		HeuristicsFile: os.Getenv("HEURISTICS_FILE"),

		WorkDir:    envOrDefault("WORK_DIR", os.TempDir()),
		NPMInstall: envOrDefaultBool("NPM_INSTALL", true),

		MCPEnabled: envOrDefaultBool("MCP_ENABLED", false),
		MCPPort:    envOrDefault("MCP_PORT", "3002"),

		LogFormat: envOrDefault("LOG_FORMAT", "text"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
	}
}

// HasGitHubToken reports whether a GitHub token is configured.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// HasLLM reports whether the selected LLM provider has what it needs.
func (c *Config) HasLLM() bool {
	switch c.LLMProvider {
	case "gemini":
		return c.GeminiAPIKey != ""
	default:
		return c.OllamaChatURL != ""
	}
}

// DSN returns the database connection string with the password masked, for logging.
func (c *Config) DSN() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.User == nil {
		return "postgres://***"
	}
	return u.Redacted()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return fallback
}
