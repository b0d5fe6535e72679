package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/cache"
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// CachePurgeJob drops expired indicator cache entries
type CachePurgeJob struct {
	cache cache.Cache
	log   zerolog.Logger
}

// NewCachePurgeJob creates a new CachePurgeJob
func NewCachePurgeJob(c cache.Cache, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		cache: c,
		log:   log.With().Str("job", "cache_purge").Logger(),
	}
}

// Name returns the job name
func (j *CachePurgeJob) Name() string {
	return "cache_purge"
}

// Run executes the cache purge job
func (j *CachePurgeJob) Run() error {
	removed := j.cache.Purge()
	j.log.Debug().
		Int("removed", removed).
		Int("remaining", j.cache.Len()).
		Msg("Purged expired cache entries")
	return nil
}

// PriceSyncer refreshes stored history from upstream
type PriceSyncer interface {
	Sync(ctx context.Context, symbols []string, horizonDays int, interval domain.Interval) int
}

// SyncTarget is one (interval, horizon) pair refreshed by PriceSyncJob
type SyncTarget struct {
	Interval    domain.Interval
	HorizonDays int
}

// SymbolSource lists the symbols to sync. It is asked on every run so
// newly imported assets are picked up.
type SymbolSource func(ctx context.Context) ([]string, error)

// PriceSyncJob keeps the history database warm for the tracked symbols
type PriceSyncJob struct {
	syncer  PriceSyncer
	symbols SymbolSource
	targets []SyncTarget
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceSyncJob creates a new PriceSyncJob
func NewPriceSyncJob(syncer PriceSyncer, symbols SymbolSource, targets []SyncTarget, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncer:  syncer,
		symbols: symbols,
		targets: targets,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run executes the price sync job. It fails only when every request failed.
func (j *PriceSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	symbols, err := j.symbols(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked symbols: %w", err)
	}
	if len(symbols) == 0 {
		j.log.Debug().Msg("No tracked symbols")
		return nil
	}

	failed, total := 0, 0
	for _, target := range j.targets {
		failed += j.syncer.Sync(ctx, symbols, target.HorizonDays, target.Interval)
		total += len(symbols)
	}

	j.log.Info().
		Int("requests", total).
		Int("failed", failed).
		Msg("Price sync finished")

	if total > 0 && failed == total {
		return fmt.Errorf("all %d price sync requests failed", total)
	}
	return nil
}
