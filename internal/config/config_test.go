package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MUSIHUB_CONFIG", "MUSIHUB_PORT", "MUSIHUB_DATABASE_URL", "MUSIHUB_MIGRATIONS",
		"MUSIHUB_SEEDS", "MUSIHUB_LOG_LEVEL", "MUSIHUB_LOG_FORMAT", "MUSIHUB_JWT_SECRET",
		"MUSIHUB_ACCESS_TOKEN_TTL", "MUSIHUB_REFRESH_TOKEN_TTL", "MUSIHUB_ALLOWED_ORIGINS",
		"MUSIHUB_TRUSTED_PROXIES",
		"MUSIHUB_AUTH_RATE_LIMIT", "MUSIHUB_AUTH_RATE_WINDOW", "MUSIHUB_AUTH_RATE_BURST",
		"MUSIHUB_S3_BUCKET", "MUSIHUB_S3_REGION", "MUSIHUB_S3_ENDPOINT", "MUSIHUB_S3_PUBLIC_BASE_URL",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.AppPort)
	}
	if cfg.AccessTokenTTL != 15*time.Minute || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttls: %s / %s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.JWTSecret != DevJWTSecret {
		t.Fatalf("expected dev secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.ObjectStore.Enabled() {
		t.Fatal("expected object store to be disabled without a bucket")
	}
	if cfg.SeedDir != "seeds" || cfg.MigrationDir != "migrations" {
		t.Fatalf("unexpected directories: %q %q", cfg.MigrationDir, cfg.SeedDir)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUSIHUB_PORT", "9090")
	t.Setenv("MUSIHUB_JWT_SECRET", "s3cret")
	t.Setenv("MUSIHUB_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("MUSIHUB_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MUSIHUB_AUTH_RATE_LIMIT", "3")
	t.Setenv("MUSIHUB_S3_BUCKET", "pictures")
	t.Setenv("MUSIHUB_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.AppPort)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("expected env secret, got %q", cfg.JWTSecret)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m access ttl, got %s", cfg.AccessTokenTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.AllowedOrigins)
	}
	if want := []string{"10.0.0.0/8", "192.0.2.10"}; !reflect.DeepEqual(cfg.TrustedProxies, want) {
		t.Fatalf("expected trusted proxies %v, got %v", want, cfg.TrustedProxies)
	}
	if cfg.AuthRateLimit.Requests != 3 {
		t.Fatalf("expected rate limit 3, got %d", cfg.AuthRateLimit.Requests)
	}
	if !cfg.ObjectStore.Enabled() {
		t.Fatal("expected object store to be enabled")
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUSIHUB_PORT", "eighty")
	t.Setenv("MUSIHUB_REFRESH_TOKEN_TTL", "forever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AppPort != 8080 || cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("expected fallbacks, got port %d ttl %s", cfg.AppPort, cfg.RefreshTokenTTL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "musihub.toml")
	contents := `
[server]
port = 7000
allowed_origins = ["https://musihub.example"]
trusted_proxies = ["172.16.0.0/12"]

[log]
format = "text"

[auth]
jwt_secret = "from-file"
access_ttl = "10m"

[object_store]
bucket = "profile-pictures"
endpoint = "http://localhost:9000"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MUSIHUB_CONFIG", path)
	t.Setenv("MUSIHUB_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppPort != 7001 {
		t.Fatalf("expected environment to win over file, got %d", cfg.AppPort)
	}
	if cfg.LogFormat != "text" || cfg.JWTSecret != "from-file" {
		t.Fatalf("expected file values, got format %q secret %q", cfg.LogFormat, cfg.JWTSecret)
	}
	if cfg.AccessTokenTTL != 10*time.Minute {
		t.Fatalf("expected 10m access ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.ObjectStore.Bucket != "profile-pictures" || cfg.ObjectStore.Region != "us-east-1" {
		t.Fatalf("unexpected object store config: %+v", cfg.ObjectStore)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://musihub.example" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "172.16.0.0/12" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}

func TestLoadRejectsInvalidConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[auth]\naccess_ttl = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MUSIHUB_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("MUSIHUB_LOG_LEVEL")

	if err := os.WriteFile(".env", []byte("MUSIHUB_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MUSIHUB_LOG_LEVEL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level from .env, got %q", cfg.LogLevel)
	}
}
