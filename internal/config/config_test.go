package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWith(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("default port want 8080 got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("default driver want sqlite got %s", cfg.Database.Driver)
	}
	if cfg.Coupon.StoreTimeout() != 3*time.Second {
		t.Fatalf("store timeout want 3s got %s", cfg.Coupon.StoreTimeout())
	}
	if cfg.Security.CouponValidateRateLimit.MaxRequests != 30 {
		t.Fatalf("rate limit default want 30 got %d", cfg.Security.CouponValidateRateLimit.MaxRequests)
	}
	if ipRule := cfg.Security.CouponValidateIPRateLimit; !ipRule.Enabled || ipRule.MaxRequests != 60 {
		t.Fatalf("ip rate limit default want enabled/60 got %+v", ipRule)
	}
	if cfg.Queue.Queues["critical"] != 5 {
		t.Fatalf("critical queue weight want 5 got %d", cfg.Queue.Queues["critical"])
	}
}

func TestLoadWithFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: \"9090\"\ncoupon:\n  store_timeout_ms: 250\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadWith(viper.New(), dir)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("file port want 9090 got %s", cfg.Server.Port)
	}
	if cfg.Coupon.StoreTimeout() != 250*time.Millisecond {
		t.Fatalf("store timeout want 250ms got %s", cfg.Coupon.StoreTimeout())
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("env should override driver, got %s", cfg.Database.Driver)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("VITRINE_DOTENV_PROBE=loaded\n"), 0o644); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}
	t.Setenv("VITRINE_DOTENV_PROBE", "")
	os.Unsetenv("VITRINE_DOTENV_PROBE")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load dotenv failed: %v", err)
	}
	if got := os.Getenv("VITRINE_DOTENV_PROBE"); got != "loaded" {
		t.Fatalf("dotenv value want loaded got %q", got)
	}
}

func TestCouponConfigFallbacks(t *testing.T) {
	var cfg CouponConfig
	if cfg.StoreTimeout() != 3*time.Second {
		t.Fatalf("zero timeout should fall back to 3s")
	}
	if cfg.StatsCacheTTL() != time.Minute {
		t.Fatalf("zero ttl should fall back to 1m")
	}
}
