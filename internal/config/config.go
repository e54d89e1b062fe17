package config

import (
	"log"
	"os"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// store
	StoreDriver string
	PostgresDSN string
	ElasticURL  string

	// server
	HTTPAddr       string
	AllowedOrigins []string
	JWTSecret      string

	// assets
	StorageDir       string
	StoragePublicURL string

	// sync
	FetchTimeout     time.Duration
	FeedPollInterval time.Duration

	NewsFeedURL string
	Seed        bool
}

func Load() *Config {
	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=sportsfest port=5432 sslmode=disable"),
		ElasticURL:  getEnv("ELASTIC_URL", ""),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		JWTSecret:      getEnv("JWT_SECRET", ""),

		StorageDir:       getEnv("STORAGE_DIR", "./uploads"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/assets"),

		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FeedPollInterval: getEnvDuration("FEED_POLL_INTERVAL", time.Second),

		NewsFeedURL: getEnv("NEWS_FEED_URL", ""),
		Seed:        getEnv("SEED", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getList(key, defaultValue string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvDuration accepts Go durations ("750ms", "2s"); "0" disables.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("❌ %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
