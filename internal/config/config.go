package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries runtime settings, all sourced from environment variables
// with development-friendly defaults.
type Config struct {
	Port          string
	AllowedOrigin string

	// DatabaseURL selects the postgres store when set. Empty means the
	// in-memory store with seeded demo products.
	DatabaseURL string

	// RedisAddr enables the held-cart cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StoreID        string
	HeldCartTTL    time.Duration
	CurrencySymbol string
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigin:  getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		StoreID:        getEnv("STORE_ID", "store-main"),
		HeldCartTTL:    time.Duration(getEnvInt("HELD_CART_TTL_MINUTES", 240)) * time.Minute,
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "$"),
	}
}

func (c Config) Address() string {
	return ":" + c.Port
}

func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
