// Package di provides dependency injection for services.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/advisor/internal/cache"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/aristath/advisor/internal/modules/history"
	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/aristath/advisor/internal/modules/ledger"
	"github.com/aristath/advisor/internal/modules/patterns"
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/aristath/advisor/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.LedgerDB == nil || container.HistoryDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	container.TransactionRepo = ledger.NewTransactionRepository(container.LedgerDB.Conn(), log)
	container.RecommendationLog = recommendation.NewLogRepository(container.LedgerDB.Conn(), log)
	container.BarRepo = history.NewBarRepository(container.HistoryDB.Conn(), log)

	return nil
}

// InitializeServices creates the services. Order matters: market data feeds
// the recommendation service, which feeds the backtest engine.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	backend, err := indicators.NewBackend(cfg.IndicatorBackend)
	if err != nil {
		return err
	}

	container.YahooClient = yahoo.NewClient(cfg.SymbolOverrides, log)
	container.MarketData = history.NewCachingProvider(container.YahooClient, container.BarRepo, cfg.HistoryMaxAge, log)

	container.IndicatorCache = cache.NewLRU(cfg.IndicatorCacheSize, cfg.IndicatorCacheTTL)
	container.IndicatorEngine = indicators.NewEngine(backend, container.IndicatorCache, log)
	container.PatternDetector = patterns.NewDetector(patterns.DefaultConfig(), log)

	container.RecommendationService = recommendation.NewService(
		container.MarketData,
		container.IndicatorEngine,
		container.PatternDetector,
		log,
	)
	container.RecommendationService.SetTimeout(cfg.ProviderTimeout)
	container.RecommendationService.SetHistory(container.RecommendationLog)

	container.PNLService = ledger.NewPNLService(container.TransactionRepo, log)
	container.Importer = ledger.NewImporter(container.TransactionRepo, log)

	container.BacktestEngine = backtest.NewEngine(container.MarketData, container.RecommendationService, log)
	container.BacktestEngine.SetTimeout(cfg.ProviderTimeout)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store,
			map[string]*database.DB{"ledger": container.LedgerDB},
			cfg.Backup.Prefix,
			cfg.DataDir,
			log,
		)
	}

	log.Info().
		Str("indicator_backend", backend.Name()).
		Bool("backup_enabled", container.BackupService != nil).
		Msg("Services initialized")

	return nil
}
