package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	DatabaseType string
	BackendURL   string
	BackendKey   string
	StartPath    string
	LogLevel     string
	EnvFile      string
	AuthSecret   string
	SessionTTL   time.Duration
}

// DefaultAuthSecret is used for local identities when AUTH_SECRET is unset.
const DefaultAuthSecret = "itemboard-local"

// UseBackend reports whether records live in the hosted REST backend
// rather than a directly connected database.
func (c Config) UseBackend() bool {
	return c.BackendURL != ""
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c Config) Level() slog.Level {
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

// ParseFlags validates flags and fills the rest from the environment.
// Values from the env file never override variables that are already set.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("itemboard", flag.ContinueOnError)

	// Storage config (can be CLI args or env)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BackendURL, "backend-url", "", "Hosted backend URL (replaces the database)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.BackendKey, "backend-key", "", "Hosted backend API key (prefer env)")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", "", "Secret for local user ids (prefer env)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Lifetime of local sessions (default 24h)")

	fs.StringVar(&cfg.StartPath, "start", "", "Initial location")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.EnvFile, "env", ".env", "Env file to load")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(cfg.EnvFile); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.BackendURL == "" {
		cfg.BackendURL = os.Getenv("BACKEND_URL")
	}
	if cfg.BackendKey == "" {
		cfg.BackendKey = os.Getenv("BACKEND_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.StartPath == "" {
		cfg.StartPath = os.Getenv("START_PATH")
		if cfg.StartPath == "" {
			cfg.StartPath = "/"
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = os.Getenv("AUTH_SECRET")
		if cfg.AuthSecret == "" {
			slog.Warn("AUTH_SECRET not set, using the local default")
			cfg.AuthSecret = DefaultAuthSecret
		}
	}
	if cfg.SessionTTL == 0 {
		if v := os.Getenv("SESSION_TTL"); v != "" {
			ttl, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
			}
			cfg.SessionTTL = ttl
		}
		if cfg.SessionTTL == 0 {
			cfg.SessionTTL = 24 * time.Hour
		}
	}
	if cfg.SessionTTL < 0 {
		return Config{}, fmt.Errorf("session ttl must be positive, got %v", cfg.SessionTTL)
	}

	if cfg.UseBackend() {
		// Secrets - MUST be provided
		if cfg.BackendKey == "" {
			return Config{}, errors.New("BACKEND_KEY required when a backend URL is set")
		}
		return cfg, nil
	}

	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}
