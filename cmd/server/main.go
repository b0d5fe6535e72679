// Package main is the entry point for the advisor HTTP service.
// It serves the transaction ledger, PNL reports, technical indicators,
// rebalance recommendations and backtests over a JSON API, and runs the
// background jobs that keep price history warm.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/di"
	backtesthandlers "github.com/aristath/advisor/internal/modules/backtest/handlers"
	ledgerhandlers "github.com/aristath/advisor/internal/modules/ledger/handlers"
	recommendationhandlers "github.com/aristath/advisor/internal/modules/recommendation/handlers"
	"github.com/aristath/advisor/internal/server"
	"github.com/aristath/advisor/pkg/logger"
)

// main loads configuration, wires dependencies, starts the HTTP server and
// the scheduler, then waits for SIGINT/SIGTERM and shuts down gracefully.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still visible
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting advisor")

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	recommendationHandler := recommendationhandlers.NewHandler(
		container.RecommendationService,
		container.RecommendationLog,
		log,
	)
	recommendationHandler.SetDefaults(cfg.Targets, cfg.RebalanceThreshold)

	srv := server.New(server.Config{
		Log:       log,
		LedgerDB:  container.LedgerDB,
		HistoryDB: container.HistoryDB,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Modules: []server.RouteRegistrar{
			ledgerhandlers.NewHandler(container.TransactionRepo, container.PNLService, log),
			recommendationHandler,
			backtesthandlers.NewHandler(container.BacktestEngine, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Jobs finish before the databases close
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
