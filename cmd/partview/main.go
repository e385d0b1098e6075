package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirychukyurii/partview/internal/api"
	"github.com/kirychukyurii/partview/internal/cache"
	"github.com/kirychukyurii/partview/internal/config"
	"github.com/kirychukyurii/partview/internal/logger"
	"github.com/kirychukyurii/partview/internal/reconcile"
	"github.com/kirychukyurii/partview/internal/repository"
	"github.com/kirychukyurii/partview/internal/service"
	"github.com/kirychukyurii/partview/pkg/httpserver"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration",
			"error", err.Error(),
		)
		os.Exit(1)
	}

	log = logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	log.Info("configuration loaded",
		"source", cfg.Source,
		"refresh_interval", cfg.Refresh.Interval,
	)

	// Snapshots are shared by all views through the cache
	snapshots := cache.New(cfg.Cache.TTL)

	repo, err := repository.New(cfg, snapshots, log)
	if err != nil {
		log.Error("failed to create partition repository",
			"source", cfg.Source,
			"error", err.Error(),
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewViewService(
		repo,
		reconcile.NewEngine(log),
		cfg.Refresh.Interval,
		cfg.Source,
		log,
	)
	svc.Start(ctx)

	handler := api.NewHandler(svc, cfg.Server.BasePath, log)

	srv := httpserver.New(
		cfg.Server.Addr,
		handler.Router(),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		log,
	)

	log.Info("starting partview service")

	if err := srv.Run(ctx); err != nil {
		log.Error("server error",
			"error", err.Error(),
		)
	}

	log.Info("shutting down views")
	svc.Shutdown()

	log.Info("shutdown complete")
}
