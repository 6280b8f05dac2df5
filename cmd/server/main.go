package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizmetrics/internal/api"
	"bizmetrics/internal/config"
	"bizmetrics/internal/logging"
	"bizmetrics/internal/source"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// 1. Initialize Echo (Starts Instantly)
	// The API is "live" but answers 503 until the dataset is loaded
	h := api.NewHandler(cfg.DashboardOptions(), cfg.CacheItems, logger.Named("api"))
	e := api.NewServer(h, api.ServerOptions{
		RateLimit:  cfg.RateLimit,
		LogLevel:   cfg.LogLevel,
		RequestLog: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Load the table in the background
	loader := source.NewLoader(cfg.GCSCredentialsFile, source.WithLogger(logger.Named("source")))
	go func() {
		logger.Info("loading dataset", zap.String("path", cfg.DataPath))
		t0 := time.Now()

		table, err := loader.Load(ctx, cfg.DataPath)
		if err != nil {
			logger.Error("dataset load failed", zap.String("path", cfg.DataPath), zap.Error(err))
			return
		}
		h.SetData(table)

		logger.Info("dataset loaded, API is fully ready", zap.Duration("elapsed", time.Since(t0)))
	}()

	// 3. Start Server
	go func() {
		logger.Info("server ready (data loading in background)", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	// 4. Shut down gracefully
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
