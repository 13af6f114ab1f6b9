package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketeye/config"
	"marketeye/internal/alpaca"
	"marketeye/internal/metrics"
	"marketeye/internal/server"
	"marketeye/internal/store"
	"marketeye/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Marketeye.Name,
		"version": cfg.Marketeye.Version,
	}).Info("starting marketeye")

	if !cfg.Upstream.HasCredentials() {
		log.WithComponent("main").Warn("no upstream credentials; serving reference data only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		interval := cfg.Metrics.ResourceReportInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		logger.StartReport(ctx, log, interval)
	}

	metrics.NewCloudWatchPublisher(cfg.Metrics.CloudWatch, log).Start(ctx)

	st := store.NewStore()
	client := alpaca.NewClient(cfg.Upstream)
	srv := server.NewServer(cfg, st, client)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		cancel()
		if err := <-errCh; err != nil {
			log.WithError(err).Error("server shutdown with error")
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}

	log.Info("marketeye stopped")
}
