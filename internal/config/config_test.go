package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/orgs?parseTime=true")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("GATE_EXCLUDED_PREFIXES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 6, cfg.App.RecentOrganizations)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/orgs?parseTime=true", cfg.DB.DSN)
	assert.Equal(t, devJWTSecret, cfg.Session.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "db", cfg.Session.Store)
	assert.Equal(t, DefaultExcludedPrefixes, cfg.Session.ExcludedPrefixes)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoad_WithEnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_DSN", "host=localhost dbname=orgs")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("GATE_EXCLUDED_PREFIXES", "/login, /public/ ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "host=localhost dbname=orgs", cfg.DB.DSN)
	assert.Equal(t, "s3cret", cfg.Session.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"/login", "/public/"}, cfg.Session.ExcludedPrefixes)
	assert.True(t, cfg.App.IsProduction())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:      DBConfig{Driver: "sqlite", DSN: ":memory:"},
			Session: SessionConfig{JWTSecret: "x", TTL: time.Hour, Store: "db"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DB.Driver = "oracle" }, "DB_DRIVER"},
		{"missing dsn", func(c *Config) { c.DB.DSN = "" }, "DB_DSN"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "SESSION_TTL"},
		{"unknown store", func(c *Config) { c.Session.Store = "memcached" }, "SESSION_STORE"},
		{"redis without addr", func(c *Config) { c.Session.Store = "redis" }, "REDIS_ADDR"},
		{"seed without password", func(c *Config) { c.Seed.Enabled = true }, "SEED_ADMIN_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
