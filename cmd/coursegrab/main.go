// Package main is the entry point for the course deals API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"coursegrab/config"
	"coursegrab/internal/cache"
	"coursegrab/internal/fetch"
	"coursegrab/internal/orchestrator"
	"coursegrab/internal/ratelimit"
	"coursegrab/internal/server"
	"coursegrab/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	jsonLogs := flag.Bool("json-logs", false, "Emit logs as JSON instead of colorized text")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Local overrides; absence of a .env file is not an error
	_ = godotenv.Load()

	var logger *slog.Logger
	if *jsonLogs {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}))
	}
	slog.SetDefault(logger)

	slog.Info("starting coursegrab",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	client := fetch.NewClient(fetch.Settings{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RetryAttempts: cfg.API.RetryAttempts,
		RetryDelay:    cfg.API.RetryDelay,
		PageSize:      cfg.API.PageSize,
	}, limiter, logger)

	store, err := cache.NewDiskStore(cfg.Cache.Dir, cfg.Cache.Duration, logger)
	if err != nil {
		slog.Error("failed to initialize cache", "dir", cfg.Cache.Dir, "error", err)
		os.Exit(1)
	}

	orch := orchestrator.New(client, store, logger)

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	handler := server.NewHandler(orch, client, store)
	srv := server.New(handler, logger, &server.Config{
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
