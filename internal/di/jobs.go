// Package di provides dependency injection for scheduler jobs.
package di

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/aristath/advisor/internal/reliability"
	"github.com/aristath/advisor/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and adds them to the scheduler.
// Jobs with an empty schedule are created but not scheduled.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	// Job 1: indicator cache purge
	instances.CachePurge = scheduler.NewCachePurgeJob(container.IndicatorCache, log)
	if err := container.Scheduler.AddJob(cfg.CachePurgeSchedule, instances.CachePurge); err != nil {
		return nil, err
	}

	// Job 2: price sync for both recommendation timeframes
	instances.PriceSync = scheduler.NewPriceSyncJob(
		container.MarketData,
		func(ctx context.Context) ([]string, error) {
			return TrackedSymbols(ctx, cfg, container.TransactionRepo)
		},
		[]scheduler.SyncTarget{
			{Interval: domain.IntervalDay, HorizonDays: recommendation.DailyHorizonDays},
			{Interval: domain.IntervalWeek, HorizonDays: recommendation.WeeklyHorizonDays},
		},
		log,
	)
	if err := container.Scheduler.AddJob(cfg.PriceSyncSchedule, instances.PriceSync); err != nil {
		return nil, err
	}

	// Job 3: integrity check, WAL checkpoint, bar retention, disk space
	maintenance := reliability.NewMaintenanceJob(map[string]*database.DB{
		"ledger":  container.LedgerDB,
		"history": container.HistoryDB,
	}, cfg.DataDir, log)
	maintenance.SetRetention(container.BarRepo, cfg.HistoryRetention)
	instances.Maintenance = maintenance
	if err := container.Scheduler.AddJob(cfg.MaintenanceSchedule, instances.Maintenance); err != nil {
		return nil, err
	}

	// Job 4: ledger backup (optional)
	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, cfg.Backup.RetentionDays, log)
		if err := container.Scheduler.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, err
		}
	}

	return instances, nil
}

// assetLister lists the assets present in the ledger
type assetLister interface {
	Symbols(ctx context.Context) ([]string, error)
}

// TrackedSymbols returns the symbols kept warm by the price sync: the
// configured list, or else the target allocation symbols together with
// every asset in the ledger
func TrackedSymbols(ctx context.Context, cfg *config.Config, ledger assetLister) ([]string, error) {
	if len(cfg.TrackedSymbols) > 0 {
		return cfg.TrackedSymbols, nil
	}

	seen := make(map[string]bool, len(cfg.Targets))
	for symbol := range cfg.Targets {
		seen[strings.ToUpper(symbol)] = true
	}
	if ledger != nil {
		assets, err := ledger.Symbols(ctx)
		if err != nil {
			return nil, err
		}
		for _, asset := range assets {
			seen[strings.ToUpper(asset)] = true
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}
