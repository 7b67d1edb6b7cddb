package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
	Seed    SeedConfig
}

type AppConfig struct {
	Name                string
	Env                 string
	Port                string
	RecentOrganizations int
}

func (a AppConfig) IsProduction() bool { return a.Env == "production" }

type DBConfig struct {
	Driver          string // mysql, postgres, sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SessionConfig struct {
	JWTSecret        string
	TTL              time.Duration
	Store            string // db or redis
	CookieSecure     bool
	ExcludedPrefixes []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level       string
	Development bool
}

type SeedConfig struct {
	Enabled       bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

const devJWTSecret = "dev-secret-only"

// DefaultExcludedPrefixes are the paths the active-account gate never checks.
var DefaultExcludedPrefixes = []string{"/login", "/signup/", "/admin/", "/api/", "/public/"}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:                v.GetString("APP_NAME"),
			Env:                 v.GetString("APP_ENV"),
			Port:                v.GetString("APP_PORT"),
			RecentOrganizations: v.GetInt("RECENT_ORGANIZATIONS"),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Session: SessionConfig{
			JWTSecret:        v.GetString("JWT_SECRET"),
			TTL:              v.GetDuration("SESSION_TTL"),
			Store:            strings.ToLower(v.GetString("SESSION_STORE")),
			CookieSecure:     v.GetBool("COOKIE_SECURE"),
			ExcludedPrefixes: splitList(v.GetString("GATE_EXCLUDED_PREFIXES")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Seed: SeedConfig{
			Enabled:       v.GetBool("SEED_ENABLED"),
			AdminUsername: v.GetString("SEED_ADMIN_USERNAME"),
			AdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			AdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		},
	}

	// MYSQL_DSN is the older name for DB_DSN.
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = v.GetString("MYSQL_DSN")
	}
	if cfg.Session.JWTSecret == "" && !cfg.App.IsProduction() {
		cfg.Session.JWTSecret = devJWTSecret
	}
	if len(cfg.Session.ExcludedPrefixes) == 0 {
		cfg.Session.ExcludedPrefixes = append([]string(nil), DefaultExcludedPrefixes...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "orgdirectory")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("RECENT_ORGANIZATIONS", 6)

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_STORE", "db")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)

	v.SetDefault("SEED_ENABLED", false)
	v.SetDefault("SEED_ADMIN_USERNAME", "admin")
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@example.com")
}

// Validate checks that the configuration can be used to start the server.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("DB_DSN not set in environment")
	}
	if c.Session.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.Session.Store {
	case "db":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}
	if c.Seed.Enabled && c.Seed.AdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required when SEED_ENABLED is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
