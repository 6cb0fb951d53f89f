package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/internal/config"
	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	"github.com/jwebster45206/route-tycoon/internal/logger"
	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/internal/storage"
	"github.com/jwebster45206/route-tycoon/internal/worker"
	"github.com/jwebster45206/route-tycoon/pkg/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Route Tycoon income worker",
		"environment", cfg.Environment,
		"interval", cfg.IncomeInterval)

	catalog := state.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = state.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Error("Failed to load catalog", "error", err, "path", cfg.CatalogPath)
			os.Exit(1)
		}
	}

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.GameTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = "worker-" + uuid.NewString()[:8]
	}
	games := gameplay.NewService(store, broadcaster, catalog, workerID, log)
	w := worker.New(store, games, cfg.IncomeInterval, log, workerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, crediting income...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	log.Info("Worker exited")
}
