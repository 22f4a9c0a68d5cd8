package config

import "testing"

func setRequiredEnv(t *testing.T, appEnv string) {
	t.Helper()
	t.Setenv("FLASHDEALZ_APP_ENV", appEnv)
	t.Setenv("FLASHDEALZ_DB_DSN", "postgres://localhost/flashdealz")
	t.Setenv("FLASHDEALZ_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FLASHDEALZ_ADMIN_TOKEN", "test-token")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t, "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatalf("expected dev environment, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.FlashSale.RateLimitCount != 5 {
		t.Fatalf("expected default rate limit 5, got %d", cfg.FlashSale.RateLimitCount)
	}
}

func TestLoadRejectsAutoMigrateInProd(t *testing.T) {
	setRequiredEnv(t, "prod")
	t.Setenv("FLASHDEALZ_DB_AUTO_MIGRATE", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected prod auto-migrate to be rejected")
	}

	t.Setenv("FLASHDEALZ_DB_AUTO_MIGRATE", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod environment, got %q", cfg.App.Env)
	}
}
