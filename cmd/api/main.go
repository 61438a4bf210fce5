package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"notecal/internal/category"
	"notecal/internal/config"
	"notecal/internal/http"
	"notecal/internal/indexer"
	"notecal/internal/notes"
	"notecal/internal/notify"
	"notecal/internal/store"
	"notecal/internal/vault"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	scanner := vault.NewScanner(cfg.VaultPath, cfg.CalendarFolder)
	slog.Info("Vault configured", "root", cfg.VaultPath, "folder", cfg.CalendarFolder)

	eventStore := store.New(cfg.Fields, cfg.Timezone, cfg.MaxRecurringInstances)
	tracker := category.NewTracker(cfg.Fields)
	mutator := notes.NewFileMutator()
	scheduler := notify.New(
		cfg.Fields,
		cfg.Timezone,
		cfg.NotifyMinutesBefore,
		cfg.NotifyDaysBefore,
		notify.DesktopPresenter{},
		mutator,
		scanner,
	)

	ingestor := indexer.New(scanner, cfg.Fields, cfg.Timezone, cfg.PollInterval, cfg.Debounce)
	ingestor.Subscribe(eventStore.Apply)
	ingestor.Subscribe(tracker.Apply)
	ingestor.Subscribe(scheduler.Apply)
	ingestor.OnIndexed(tracker.Publish)

	// Index in the background; the health endpoint reports readiness.
	go func() {
		if err := ingestor.Run(context.Background()); err != nil {
			slog.Error("Ingestion stopped with error", "error", err)
		}
	}()

	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start notification scheduler: %v", err)
	}
	slog.Info("Notification scheduler started")

	deps := &http.Deps{
		Store:         eventStore,
		Categories:    tracker,
		Notifications: scheduler,
		Ingestor:      ingestor,
		VaultRoot:     cfg.VaultPath,
		Location:      cfg.Timezone,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("Starting API server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	scheduler.Stop()
	ingestor.Stop()
	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
