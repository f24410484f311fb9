// Package config loads engine configuration from the environment and risk
// limits profiles from YAML files.
package config

import "os"

// Config holds engine wiring configuration.
type Config struct {
	LedgerBackend string // "memory", "sqlite" or "postgres"
	DatabaseURL   string
	SQLitePath    string
	RedisAddr     string
	LogLevel      string
	LimitsProfile string // optional YAML limits file
}

// Load loads configuration from environment variables.
func Load() *Config {
	backend := os.Getenv("LEDGER_BACKEND")
	if backend == "" {
		backend = "sqlite"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "blossom.db"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://blossom@localhost:5432/blossom?sslmode=disable"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		LedgerBackend: backend,
		DatabaseURL:   dbURL,
		SQLitePath:    sqlitePath,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		LogLevel:      logLevel,
		LimitsProfile: os.Getenv("LIMITS_PROFILE"),
	}
}
