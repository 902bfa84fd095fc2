package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("address = %q, want :8080", cfg.Address())
	}
	if cfg.StoreID != "store-main" {
		t.Fatalf("store id = %q, want store-main", cfg.StoreID)
	}
	if cfg.HeldCartTTL != 240*time.Minute {
		t.Fatalf("held cart ttl = %s, want 4h", cfg.HeldCartTTL)
	}
	if cfg.CurrencySymbol != "$" {
		t.Fatalf("currency symbol = %q, want $", cfg.CurrencySymbol)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_ID", "store-42")
	t.Setenv("HELD_CART_TTL_MINUTES", "15")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Port)
	}
	if cfg.StoreID != "store-42" {
		t.Fatalf("store id = %q, want store-42", cfg.StoreID)
	}
	if cfg.HeldCartTTL != 15*time.Minute {
		t.Fatalf("held cart ttl = %s, want 15m", cfg.HeldCartTTL)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("redis db = %d, want 3", cfg.RedisDB)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	if cfg.RedisDB != 0 {
		t.Fatalf("redis db = %d, want fallback 0", cfg.RedisDB)
	}
}
