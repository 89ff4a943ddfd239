package config

import (
	"os"
	"strings"
	"time"
)

type AppConfig struct {
	// Server
	HTTPAddr string

	// Upstream EduScribe API
	UpstreamBaseURL      string
	UpstreamTimeout      time.Duration
	AllowPrivateUpstream bool

	// Redis (optional; empty addr disables it)
	RedisAddr string
	RedisPass string

	// Login rate limiting (requires Redis)
	LoginRateLimit bool

	// Session store defaults
	RevalidateInterval time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		UpstreamBaseURL:      getEnv("UPSTREAM_BASE_URL", "http://eduscribe.runasp.net/api"),
		UpstreamTimeout:      getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		AllowPrivateUpstream: getEnvBool("UPSTREAM_ALLOW_PRIVATE", false),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),

		LoginRateLimit: getEnvBool("LOGIN_RATE_LIMIT", true),

		RevalidateInterval: getEnvDuration("SESSION_REVALIDATE_INTERVAL", time.Minute),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.ToLower(v) == "true"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
