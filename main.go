package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"record-reconciliation/internal/audit"
	"record-reconciliation/internal/connector"
	"record-reconciliation/internal/reconcile"
	"record-reconciliation/internal/report"
	"record-reconciliation/internal/service"
	"record-reconciliation/pkg/config"
	"record-reconciliation/pkg/database"
	"record-reconciliation/pkg/gate"
	"record-reconciliation/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLogger(logging.LogConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: "stdout",
	})
	log := logger.WithComponent("main")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Threshold defaults can change between runs without a restart; the
	// subscription below pushes reloads into the server.
	watcher := config.NewWatcher(30 * time.Second)
	watcher.Start()
	defer watcher.Close()

	registry := connector.NewRegistry()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.CloseAll(shutdownCtx); err != nil {
			log.Warn("connector shutdown", logging.String("error", err.Error()))
		}
	}()

	switch {
	case cfg.SourceDSN != "" && cfg.SourceTable != "":
		registry.Register(connector.NewSQLConnector("source", cfg.SourceDSN, cfg.SourceTable, cfg.SourceIDField, cfg))
	case cfg.SourceEndpoint != "":
		registry.Register(connector.NewRESTConnector("source", cfg.SourceEndpoint, cfg.SourceIDField, logger))
	}
	switch {
	case cfg.TargetDSN != "" && cfg.TargetTable != "":
		registry.Register(connector.NewSQLConnector("target", cfg.TargetDSN, cfg.TargetTable, cfg.TargetIDField, cfg))
	case cfg.TargetEndpoint != "":
		registry.Register(connector.NewRESTConnector("target", cfg.TargetEndpoint, cfg.TargetIDField, logger))
	}

	var auditStore audit.Store = audit.NopStore{}
	if cfg.AuditSink == "sql" && cfg.SourceDSN != "" {
		db, err := database.New(cfg.SourceDSN, cfg)
		if err != nil {
			log.Error("audit database unavailable", err)
			os.Exit(1)
		}
		defer db.Close()
		auditStore = audit.NewSQLStore(db)
	}

	summarizer := report.NewSummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout)

	var geocoder *connector.AddressCanonicalizer
	if cfg.GoogleMapsAPIKey != "" {
		g, err := connector.NewAddressCanonicalizer(cfg.GoogleMapsAPIKey, logger)
		if err != nil {
			log.Warn("geocoder disabled", logging.String("error", err.Error()))
		} else {
			geocoder = g
		}
	}

	engine := reconcile.NewEngine(reconcile.Config{WorkerCount: cfg.WorkerCount}, logger)

	srv := service.NewServer(
		logger,
		gate.New(cfg.GatePermits),
		registry,
		engine,
		auditStore,
		summarizer,
		geocoder,
		defaultsFrom(watcher.Current()),
	)

	go func() {
		for chg := range watcher.Subscribe() {
			if chg.Err != nil {
				log.Warn("config reload rejected", logging.String("error", chg.Err.Error()))
				continue
			}
			srv.SetDefaults(defaultsFrom(chg.New))
			log.Info("config reloaded", logging.Any("fields", chg.Fields))
		}
	}()

	log.Info("starting reconciliation service",
		logging.Any("config", cfg.Summary()),
		logging.Any("connectors", registry.Names()),
		logging.Bool("summarizer", summarizer.Enabled()))

	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%s", cfg.Port), 15*time.Second); err != nil {
		log.Error("server exited", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func defaultsFrom(cfg *config.Config) service.Defaults {
	return service.Defaults{
		RunConfigPath:   cfg.RunConfigPath,
		MatchThreshold:  cfg.MatchThreshold,
		ReviewThreshold: cfg.ReviewThreshold,
	}
}
