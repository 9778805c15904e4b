package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gridform/internal/config"
	"github.com/JonMunkholm/gridform/internal/logging"
	"github.com/JonMunkholm/gridform/internal/page"
	"github.com/JonMunkholm/gridform/internal/procedure"
	"github.com/JonMunkholm/gridform/internal/web"
)

func main() {
	// Environment variables already set take precedence over .env.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	n, err := page.RegisterDir(cfg.Pages.Dir)
	if err != nil {
		slog.Error("failed to load pages", "dir", cfg.Pages.Dir, "error", err)
		os.Exit(1)
	}
	slog.Info("pages registered", "count", n, "groups", page.Groups())

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database", "name", poolConfig.ConnConfig.Database)

	saves := procedure.NewSaveLimiter(cfg.Database.MaxConcurrentSaves, cfg.Database.SaveWait)
	exec := procedure.NewExecutor(pool, cfg.Database.CallTimeout).WithSaveLimiter(saves)
	server := web.NewServer(exec, cfg)

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := saves.WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("saves still running at shutdown", "active", saves.ActiveCount())
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-idle
	slog.Info("server stopped")
}
