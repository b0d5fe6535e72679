package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultMaxAge is how long stored bars are served without asking upstream
const DefaultMaxAge = 6 * time.Hour

// CachingProvider serves bars from the history database while they are
// fresh and reach back far enough, and refreshes them from upstream
// otherwise. When upstream fails,
// whatever is stored is served instead.
type CachingProvider struct {
	upstream domain.MarketDataProvider
	repo     *BarRepository
	maxAge   time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachingProvider wraps upstream with the bar store
func NewCachingProvider(upstream domain.MarketDataProvider, repo *BarRepository, maxAge time.Duration, log zerolog.Logger) *CachingProvider {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CachingProvider{
		upstream: upstream,
		repo:     repo,
		maxAge:   maxAge,
		now:      time.Now,
		log:      log.With().Str("component", "caching_provider").Logger(),
	}
}

// GetHistory implements domain.MarketDataProvider
func (p *CachingProvider) GetHistory(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	req.Symbol = strings.ToUpper(req.Symbol)
	interval := req.ResolvedInterval()
	since := p.now().AddDate(0, 0, -req.HorizonDays)

	coverage, ok, err := p.repo.Coverage(ctx, req.Symbol, interval)
	if err != nil {
		p.log.Warn().Err(err).Str("symbol", req.Symbol).Msg("Failed to read coverage")
	}
	if ok && p.now().Sub(coverage.SyncedAt) < p.maxAge && coverage.Covers(since) {
		bars, err := p.repo.Get(ctx, req.Symbol, interval, since)
		if err == nil && len(bars) > 0 {
			return bars, interval, nil
		}
	}

	bars, served, err := p.Refresh(ctx, req)
	if err == nil {
		return bars, served, nil
	}

	stale, staleErr := p.repo.Get(ctx, req.Symbol, interval, since)
	if staleErr != nil || len(stale) == 0 {
		return nil, interval, err
	}
	p.log.Warn().
		Err(err).
		Str("symbol", req.Symbol).
		Int("bars", len(stale)).
		Msg("Upstream unavailable, serving stored bars")
	return stale, interval, nil
}

// Refresh fetches from upstream and stores the result
func (p *CachingProvider) Refresh(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	req.Symbol = strings.ToUpper(req.Symbol)
	since := p.now().AddDate(0, 0, -req.HorizonDays)
	bars, served, err := p.upstream.GetHistory(ctx, req)
	if err != nil {
		return nil, served, fmt.Errorf("upstream history for %s: %w", req.Symbol, err)
	}
	if served == "" {
		served = req.ResolvedInterval()
	}
	if len(bars) > 0 {
		if err := p.repo.Save(ctx, req.Symbol, served, since, bars); err != nil {
			p.log.Warn().Err(err).Str("symbol", req.Symbol).Msg("Failed to store bars")
		}
	}
	return bars, served, nil
}

// Sync refreshes every symbol for the horizon and returns how many failed.
// Symbols skipped after ctx ends count as failed.
func (p *CachingProvider) Sync(ctx context.Context, symbols []string, horizonDays int, interval domain.Interval) int {
	failed := 0
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			return failed + len(symbols) - i
		}
		bars, _, err := p.Refresh(ctx, domain.HistoryRequest{
			Symbol:      symbol,
			Interval:    interval,
			HorizonDays: horizonDays,
		})
		if err != nil {
			failed++
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Price sync failed")
			continue
		}
		p.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Price sync complete")
	}
	return failed
}
