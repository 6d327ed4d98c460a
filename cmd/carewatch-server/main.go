// Package main provides the carewatch HTTP server.
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
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/raphaelgruber/carewatch/internal/alert"
	"github.com/raphaelgruber/carewatch/internal/classifier"
	"github.com/raphaelgruber/carewatch/internal/config"
	"github.com/raphaelgruber/carewatch/internal/db"
	"github.com/raphaelgruber/carewatch/internal/device"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/llm"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/raphaelgruber/carewatch/internal/server"
	"github.com/raphaelgruber/carewatch/internal/service"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	logger.Info("starting carewatch-server",
		"version", version,
		"port", cfg.ServerPort,
		"store", cfg.Store,
		"llm_provider", cfg.LLMProvider,
	)

	if cfg.JWTSecret == "" {
		logger.Error("CAREWATCH_JWT_SECRET is required")
		os.Exit(1)
	}

	mc := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, cfg, logger, mc, *wipeDB || os.Getenv("CAREWATCH_WIPE_DB") == "true")
	cancel()
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to create token service", "error", err)
		os.Exit(1)
	}

	// Caretaker notifications fall back to a fixed template without an LLM.
	var writer alert.Writer
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	model, err := llm.NewModel(ctx, cfg)
	cancel()
	switch {
	case errors.Is(err, llm.ErrDisabled):
		logger.Info("LLM disabled, using template notifications")
	case err != nil:
		logger.Warn("LLM unavailable, using template notifications", "error", err)
	default:
		logger.Info("LLM initialized", "provider", cfg.LLMProvider, "model", model.Model())
		writer = model
	}

	hub := alert.NewHub(logger, originChecker(cfg.CORSOrigins))
	defer hub.Close()

	schemas := map[string]ensemble.Schema{
		models.MonitorHealth: monitor.HealthSchema,
		models.MonitorSafety: monitor.SafetySchema,
	}
	features := make(map[string][]string, len(schemas))
	for kind, schema := range schemas {
		features[kind] = schema.Features
	}

	alerts := service.NewAlertService(store, store, store, alert.NewComposer(writer, mc, logger), features)
	sink := alert.Fanout{alerts, hub, alert.LogSink(logger)}
	monitors := loadMonitors(cfg.ModelDir, schemas, sink, mc, logger)

	var ingest *device.Ingest
	if cfg.MQTTBroker != "" {
		checkers := make(map[string]device.Checker, len(monitors))
		for kind, m := range monitors {
			checkers[kind] = m
		}
		ingest = device.NewIngest(device.IngestConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, store, checkers, logger)
		if err := ingest.Start(); err != nil {
			// The HTTP API still works without wearables.
			logger.Error("failed to start MQTT ingest", "broker", cfg.MQTTBroker, "error", err)
			ingest = nil
		} else {
			defer ingest.Stop()
		}
	}

	srv := server.New(server.Deps{
		Accounts:    service.NewAccountService(store, tokens),
		Caretakers:  service.NewCaretakerService(store),
		Reminders:   service.NewReminderService(store, cfg.TimeZone),
		Alerts:      alerts,
		Hub:         hub,
		Monitors:    monitors,
		Scanner:     device.NewBLEScanner(mc),
		ScanTimeout: cfg.ScanTimeout,
		Metrics:     mc,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // device scans and LLM notifications
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// openStore connects the configured backend and returns a close function.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger, mc *metrics.Collector, wipe bool) (service.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		return db.NewMemory(), func() {}, nil
	}
	if cfg.Store != config.StoreSurrealDB {
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	client, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger, mc)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	closeFn := func() {
		logger.Info("closing database connection")
		_ = client.Close(context.Background())
	}

	if err := client.InitSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("initialize schema: %w", err)
	}
	if wipe {
		if err := client.WipeData(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("wipe database: %w", err)
		}
	}
	return client, closeFn, nil
}

// loadMonitors builds a monitor for every kind whose models load.
// A monitor with missing or broken models is left out and its endpoint
// is not served.
func loadMonitors(dir string, schemas map[string]ensemble.Schema, sink alert.Sink, mc *metrics.Collector, logger *slog.Logger) map[string]*monitor.Monitor {
	monitors := make(map[string]*monitor.Monitor, len(schemas))
	for kind, schema := range schemas {
		e, err := classifier.LoadSet(filepath.Join(dir, kind), schema)
		if err != nil {
			logger.Error("monitor disabled", "monitor", kind, "error", err)
			continue
		}
		monitors[kind] = monitor.New(kind, e, sink, mc, logger)
		logger.Info("monitor ready", "monitor", kind, "voters", e.Size())
	}
	return monitors
}

// originChecker allows websocket upgrades from the configured CORS origins
// and from clients that send no Origin header (the CLI).
func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
