/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived service of the advisor. It is built
 * once by Wire and handed to the HTTP server and the scheduler.
 */
package di

import (
	"github.com/aristath/advisor/internal/cache"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/aristath/advisor/internal/modules/history"
	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/aristath/advisor/internal/modules/ledger"
	"github.com/aristath/advisor/internal/modules/patterns"
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/aristath/advisor/internal/reliability"
	"github.com/aristath/advisor/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	LedgerDB  *database.DB // Transactions and the recommendation log
	HistoryDB *database.DB // Cached price bars, re-fetchable

	// Clients
	YahooClient *yahoo.Client

	// Repositories
	TransactionRepo   *ledger.TransactionRepository
	BarRepo           *history.BarRepository
	RecommendationLog *recommendation.LogRepository

	// Services
	MarketData            *history.CachingProvider
	IndicatorCache        cache.Cache
	IndicatorEngine       *indicators.Engine
	PatternDetector       *patterns.Detector
	RecommendationService *recommendation.Service
	PNLService            *ledger.PNLService
	Importer              *ledger.Importer
	BacktestEngine        *backtest.Engine
	BackupService         *reliability.BackupService // nil when backups are disabled

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs so they can be triggered manually
type JobInstances struct {
	CachePurge  scheduler.Job
	PriceSync   scheduler.Job
	Maintenance scheduler.Job
	Backup      scheduler.Job // nil when backups are disabled
}

// Close closes both databases
func (c *Container) Close() {
	if c.LedgerDB != nil {
		_ = c.LedgerDB.Close()
	}
	if c.HistoryDB != nil {
		_ = c.HistoryDB.Close()
	}
}
