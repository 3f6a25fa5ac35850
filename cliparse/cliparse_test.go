// cliparse/cliparse_test.go
package cliparse

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable ParseFlags reads for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DATABASE_TYPE", "BACKEND_URL", "BACKEND_KEY", "START_PATH", "LOG_LEVEL", "AUTH_SECRET", "SESSION_TTL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("START_PATH", "/dashboard")

	cfg, err := ParseFlags([]string{"-env", ""})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.StartPath != "/dashboard" {
		t.Errorf("expected start path /dashboard, got %q", cfg.StartPath)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "file:env.db")

	cfg, err := ParseFlags([]string{"-env", "", "-d", "postgres://cli", "-t", "postgres"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.DatabaseURL != "postgres://cli" {
		t.Errorf("CLI should override env: expected postgres://cli, got %q", cfg.DatabaseURL)
	}
	if cfg.StartPath != "/" {
		t.Errorf("expected default start path, got %q", cfg.StartPath)
	}
}

func TestParseFlags_MissingDatabase(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-env", ""}); err == nil {
		t.Fatal("expected error without a database URL")
	}
}

func TestParseFlags_InvalidType(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-env", "", "-d", "x", "-t", "mysql"}); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestParseFlags_BackendRequiresKey(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-env", "", "-backend-url", "https://abc.supabase.co"}); err == nil {
		t.Fatal("expected error without a backend key")
	}

	t.Setenv("BACKEND_KEY", "anon")
	cfg, err := ParseFlags([]string{"-env", "", "-backend-url", "https://abc.supabase.co"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.UseBackend() {
		t.Error("expected backend mode")
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DATABASE_URL=file:fromfile.db\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseURL != "file:fromfile.db" {
		t.Errorf("expected database url from env file, got %q", cfg.DatabaseURL)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.Level())
	}
}

func TestParseFlags_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	_, err := ParseFlags([]string{"-env", filepath.Join(t.TempDir(), "absent.env"), "-d", "file:x.db"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestParseFlags_Session(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-env", "", "-d", "file:x.db"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuthSecret != DefaultAuthSecret {
		t.Errorf("expected default auth secret, got %q", cfg.AuthSecret)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session ttl, got %v", cfg.SessionTTL)
	}

	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "90m")
	cfg, err = ParseFlags([]string{"-env", "", "-d", "file:x.db"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuthSecret != "s3cret" || cfg.SessionTTL != 90*time.Minute {
		t.Errorf("expected values from env, got %q and %v", cfg.AuthSecret, cfg.SessionTTL)
	}

	cfg, err = ParseFlags([]string{"-env", "", "-d", "file:x.db", "-session-ttl", "5m"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("CLI should override env: got %v", cfg.SessionTTL)
	}
}

func TestParseFlags_InvalidSessionTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "soon")

	if _, err := ParseFlags([]string{"-env", "", "-d", "file:x.db"}); err == nil {
		t.Error("expected error for invalid SESSION_TTL")
	}
	if _, err := ParseFlags([]string{"-env", "", "-d", "file:x.db", "-session-ttl", "-1h"}); err == nil {
		t.Error("expected error for negative session ttl")
	}
}
