package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/tendant/refenti-content/pkg/sitecontent/api"
	"github.com/tendant/refenti-content/pkg/sitecontent/config"
	"github.com/tendant/refenti-content/pkg/sitecontent/metrics"
)

const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadServerConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	var prom *metrics.Prom
	if cfg.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom, err = metrics.NewProm(cfg.MetricsNamespace, registry)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	rt, err := cfg.BuildService(ctx, logger, prom)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer rt.Close()

	cache, closeCache, err := cfg.BuildListCache()
	if err != nil {
		return fmt.Errorf("failed to build list cache: %w", err)
	}
	defer closeCache()

	auth := cfg.BuildAuth()
	if auth == nil {
		logger.Warn("Admin API disabled, AUTH_JWT_SECRET is not set")
	}

	router := api.New(rt.Service,
		api.WithCache(cache),
		api.WithAuth(auth),
		api.WithMetrics(prom),
		api.WithLogger(logger),
	).Routes()
	if prom != nil {
		router.Handle("/metrics", metrics.Handler(registry))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Refenti content server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"storage", cfg.Storage.Type,
			"cache", cfg.Cache.Type,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:   "refenti-server",
		Usage:  "Serve the Refenti site content API and public media",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
