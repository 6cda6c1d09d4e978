// Package main is the entry point for the boatserver mirror.
// Its sole responsibility is wiring dependencies together and starting
// the synchronization loop and the local HTTP server. No business logic
// belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/destinationbook/boatserver/internal/config"
	"github.com/destinationbook/boatserver/internal/guide"
	"github.com/destinationbook/boatserver/internal/handler"
	"github.com/destinationbook/boatserver/internal/metrics"
	"github.com/destinationbook/boatserver/internal/middleware"
	"github.com/destinationbook/boatserver/internal/mirror"
	"github.com/destinationbook/boatserver/internal/remote"
	"github.com/destinationbook/boatserver/internal/syncer"
	"github.com/destinationbook/boatserver/internal/telemetry"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	// --- Components -------------------------------------------------------
	m := metrics.New()
	fetcher := remote.NewFetcher(cfg.Remote.Timeout, logger)
	rewriter := mirror.New(fetcher, cfg.Mirror.LocalHost, cfg.Mirror.LocalPort, cfg.Mirror.PublicRoot, logger)
	engine := syncer.New(cfg, fetcher, rewriter, logger, m)
	store := guide.NewStore(cfg.Mirror.PublicRoot, logger)
	collector := telemetry.NewCollector(cfg, fetcher, logger)

	// --- Sync loop --------------------------------------------------------
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go runSyncLoop(loopCtx, cfg.Sync.Interval, engine, store, collector, logger)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → Logger → Recoverer → CORS.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.Server.CORSOrigins))

	r.Handle("/metrics", m.Handler())

	srv := handler.NewServer(cfg.Mirror.PublicRoot, store, collector, cfg.Server.MaxTelemetryBody, logger)
	srv.Register(r)

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "public_root", cfg.Mirror.PublicRoot)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down")
	stopLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// runSyncLoop runs one synchronization pass immediately and then one per
// interval until ctx is cancelled. Guide extraction and telemetry
// delivery follow every pass; their failures are logged, never fatal,
// because the next cycle retries them.
func runSyncLoop(ctx context.Context, interval time.Duration, engine *syncer.Engine, store *guide.Store, collector *telemetry.Collector, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := engine.Run(ctx); err != nil {
			log.Error("synchronization run failed", "error", err)
		}
		if err := store.MaterializeAll(); err != nil {
			log.Error("guide extraction pass failed", "error", err)
		}
		if err := collector.Deliver(ctx); err != nil {
			log.Error("telemetry delivery failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
