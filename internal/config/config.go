package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort      string
	JWTSecret       string
	AllowedOrigins  []string
	HistoryCapacity int
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "localhost:*")),
		HistoryCapacity: parseInt(getEnv("CHAT_HISTORY_CAPACITY", ""), 100),
		ShutdownTimeout: parseSeconds(getEnv("SHUTDOWN_TIMEOUT_SECONDS", ""), 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseSeconds(value string, fallback time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
