package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevOrigins are always accepted by CORS so a local frontend works without extra setup.
var DevOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
}

type Config struct {
	Port string

	// Env is "development" (default) or "production". "prod" is accepted as an alias.
	Env string

	// DatabaseURL is a postgres DSN. It is only used in production; without it
	// the server falls back to SQLite.
	DatabaseURL string
	// SQLitePath is the database file used when PostgreSQL is not selected.
	SQLitePath string

	// DBMaxOpenConns is the maximum number of open connections to PostgreSQL (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// MaxUsers caps the number of users that can ever register (default 10).
	MaxUsers int

	AnthropicAPIKey    string
	AnthropicBaseURL   string
	AnthropicModel     string
	AnthropicMaxTokens int
	AnthropicTimeout   time.Duration
	// AnthropicMaxRetries is how often the SDK retries 429/5xx replies (default 2).
	AnthropicMaxRetries int

	// RateLimitRequests requests are allowed per client IP per RateLimitWindow.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// AnalyzeRateLimit is the number of analyze calls allowed per client IP per hour.
	AnalyzeRateLimit int

	// TrustProxy makes the rate limiters key on X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxy bool

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://coffee.example.com).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). FRONTEND_URL and DevOrigins are appended.
	CORSAllowedOrigins []string

	// MaxBodyBytes limits request bodies. Base64 photos are large, so the default is 10 MiB.
	MaxBodyBytes int64

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string
	// LogLevel is debug, info (default), warn or error.
	LogLevel string

	ShutdownTimeout time.Duration
}

func Load() Config {
	origins := parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", ""))
	if u := strings.TrimSpace(getEnv("FRONTEND_URL", "")); u != "" {
		origins = append(origins, u)
	}
	origins = append(origins, DevOrigins...)

	return Config{
		Port: getEnv("PORT", "3001"),
		Env:  getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "brewlog.db"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		MaxUsers: getEnvInt("MAX_USERS", 10),

		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL:    getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicModel:      getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		AnthropicMaxTokens:  getEnvInt("ANTHROPIC_MAX_TOKENS", 1024),
		AnthropicTimeout:    getEnvDuration("ANTHROPIC_TIMEOUT", 60*time.Second),
		AnthropicMaxRetries: getEnvInt("ANTHROPIC_MAX_RETRIES", 2),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		AnalyzeRateLimit:  getEnvInt("ANALYZE_RATE_LIMIT", 10),

		TrustProxy: getEnvBool("TRUST_PROXY", false),

		CORSAllowedOrigins: origins,

		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// IsProduction reports whether ENV selects the production deployment.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// UsePostgres reports whether the PostgreSQL backend should be used.
func (c Config) UsePostgres() bool {
	return c.IsProduction() && c.DatabaseURL != ""
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
