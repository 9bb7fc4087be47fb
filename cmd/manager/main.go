package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"it-inventory-manager/internal"
	"it-inventory-manager/internal/config"
	logpkg "it-inventory-manager/internal/log"
	"it-inventory-manager/internal/store"

	"github.com/pkg/errors"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		logpkg.NewLogrusLogger("").WithError(err).Fatal("Configuration error")
	}

	logger := logpkg.NewLogrusLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := internal.NewMetrics()

	st, err := store.Open(ctx, cfg.DBPath, store.WithLogger(logger), store.WithObserver(metrics))
	if err != nil {
		logger.WithError(err).Fatal("Failed to open inventory store")
	}
	if err := st.Initialize(ctx); err != nil {
		_ = st.Close()
		logger.WithError(err).Fatal("Failed to initialize inventory store")
	}

	srv, err := internal.NewServer(ctx, cfg, st, metrics, logger)
	if err != nil {
		_ = st.Close()
		logger.WithError(err).Fatal("Failed to build inventory window")
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Shutdown did not complete cleanly")
		}
	}()

	logger.WithField("db_path", cfg.DBPath).Info("Starting IT Inventory Manager...")
	logger.WithField("metrics", cfg.EnableMetrics).Infof("Open http://%s in your browser", cfg.Addr)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_ = srv.Close(context.Background())
		logger.WithError(err).Fatal("Server stopped")
	}

	if err := srv.Close(context.Background()); err != nil {
		logger.WithError(err).Error("Failed to close inventory store")
	}
	logger.Info("Stopped")
}
