// Command storagemapd serves verifiable chunk-addressable storage maps
// over HTTP: it owns a router.Router and exposes it through
// internal/httpapi, with its listen address, data directory, and log
// level resolved from flags or environment variables via internal/config.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	luxlog "github.com/luxfi/log"
	"github.com/urfave/cli/v2"

	"github.com/mfranciszkiewicz/golem-resource-storage/internal/config"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/httpapi"
	"github.com/mfranciszkiewicz/golem-resource-storage/internal/router"
)

func main() {
	app := &cli.App{
		Name:  "storagemapd",
		Usage: "serve verifiable chunk-addressable storage maps over HTTP",
		Flags: config.Flags(),
		Action: func(c *cli.Context) error {
			return run(config.FromContext(c))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := luxlog.NewLogger("storagemapd")
	logger.SetLevel(parseLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	r := router.New(logger)
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("router close", "error", err)
		}
	}()

	srv := httpapi.New(r, logger, cfg.DataDir)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("storagemapd listening", "addr", cfg.Listen, "data_dir", cfg.DataDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}
	logger.Info("storagemapd stopped")
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
