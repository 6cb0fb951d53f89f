package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/route-tycoon/internal/advisor"
	"github.com/jwebster45206/route-tycoon/internal/config"
	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/internal/logger"
	"github.com/jwebster45206/route-tycoon/internal/services"
	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/internal/storage"
	"github.com/jwebster45206/route-tycoon/pkg/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Route Tycoon API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	catalog := state.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = state.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Error("Failed to load catalog", "error", err, "path", cfg.CatalogPath)
			os.Exit(1)
		}
		log.Info("Loaded catalog", "path", cfg.CatalogPath, "cities", len(catalog.Cities), "routes", len(catalog.Routes))
	}

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		log.Error("Invalid LLM provider specified", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.GameTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	broadcaster := events.NewBroadcaster(store.Client(), log)
	games := gameplay.NewService(store, broadcaster, catalog, "api-"+cfg.WorkerID, log)
	gateway := advisor.NewGateway(llmService, store, broadcaster, log)

	router := handlers.NewRouter(handlers.Deps{
		Games:       games,
		Advisor:     gateway,
		Events:      broadcaster,
		Health:      store,
		Model:       llmService.ModelName(),
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams and suggestion calls stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
