package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"orgdirectory/internal/auth"
	"orgdirectory/internal/config"
	"orgdirectory/internal/db"
	httpserver "orgdirectory/internal/http"
	"orgdirectory/internal/http/handlers"
	"orgdirectory/internal/logger"
	"orgdirectory/internal/metrics"
	"orgdirectory/internal/models"
	"orgdirectory/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.Log.Development,
	})
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	gdb, err := db.Connect(cfg.DB, log)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb, models.All()...); err != nil {
		return err
	}
	if err := seed.FirstSetup(ctx, gdb, cfg.Seed, log); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	checks := map[string]handlers.Pinger{}
	var store auth.SessionStore
	switch cfg.Session.Store {
	case "redis":
		rs := auth.NewRedisSessionStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		checks["redis"] = rs
		store = rs
	default:
		ds := auth.NewDBSessionStore(gdb)
		if n, err := ds.DeleteExpired(ctx); err != nil {
			log.Warn("failed to purge expired sessions", zap.Error(err))
		} else if n > 0 {
			log.Info("purged expired sessions", zap.Int64("count", n))
		}
		store = ds
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := httpserver.NewRouter(httpserver.Deps{
		ServiceName: cfg.App.Name,
		DB:          gdb,
		Sessions: &auth.Manager{
			Store:  store,
			Secret: []byte(cfg.Session.JWTSecret),
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.CookieSecure,
		},
		ExcludedPrefixes:    cfg.Session.ExcludedPrefixes,
		Log:                 log,
		Metrics:             metrics.New(),
		RecentOrganizations: cfg.App.RecentOrganizations,
		HealthChecks:        checks,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
