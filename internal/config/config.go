package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	// DataDir is the base directory for flat-file mission storage.
	DataDir string

	// ExpectedVolume is the expected mission count, used to pick a storage tier.
	ExpectedVolume int

	// SQLitePath is the database file for the embedded SQL tier.
	SQLitePath string

	// PostgresDSN is the connection string for the server SQL tier.
	PostgresDSN string

	// RedisURL is the address of the player save-state store.
	RedisURL string

	// ArchiveAgeDays is how long a completed mission stays in the live
	// collection before cleanup moves it to cold storage.
	ArchiveAgeDays int
}

func Load() *Config {
	return &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DataDir:        getEnv("MISSION_DATA_DIR", "./data/missions"),
		ExpectedVolume: getEnvInt("EXPECTED_MISSION_VOLUME", 40),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/missions.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		ArchiveAgeDays: getEnvInt("ARCHIVE_AGE_DAYS", 30),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
