package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/system"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", envOr("DIMMER_CONFIG", "configs/config.yaml"), "path to the YAML config file, empty for defaults")
	flag.Parse()

	// Logger initialisieren
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Config laden
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Config loaded successfully", zap.String("path", *configPath))

	// Lifecycle Manager
	lifecycle, err := system.NewLifecycleManager(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize system", zap.Error(err))
	}

	// System starten
	if err := lifecycle.Start(); err != nil {
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	logger.Info("OpenDimmer started successfully", zap.String("device_name", lifecycle.DeviceName()))

	// Graceful Shutdown auf Signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("OpenDimmer stopped successfully")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
