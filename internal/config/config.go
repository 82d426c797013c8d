package config

import (
	"os"
	"strconv"
)

// Config carries the environment-driven settings. Values come from the
// process environment; main loads a .env file first via godotenv.
type Config struct {
	Addr        string
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
	JWTSecret   string
}

// Load reads configuration from the environment, falling back to local
// development defaults.
func Load() Config {
	return Config{
		Addr:        getenv("SERVER_ADDR", ":8080"),
		PostgresDSN: getenv("POSTGRES_DSN", "host=localhost user=user password=password dbname=connectlydb port=5432 sslmode=disable"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getenvInt("REDIS_DB", 0),
		JWTSecret:   getenv("JWT_SECRET", "dev-only-secret"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
