package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LIMITS_PROFILE", "")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.LedgerBackend)
	assert.Equal(t, "blossom.db", cfg.SQLitePath)
	assert.Equal(t, "postgres://blossom@localhost:5432/blossom?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.LimitsProfile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://app@db:5432/authz")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LIMITS_PROFILE", "/etc/blossom/limits.yaml")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.LedgerBackend)
	assert.Equal(t, "postgres://app@db:5432/authz", cfg.DatabaseURL)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "/etc/blossom/limits.yaml", cfg.LimitsProfile)
}
