package backtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// ReplayProvider serves pre-fetched weekly history as of a movable date.
// Bars dated after the cursor are never returned, whatever interval the
// caller asks for, so strategies cannot see the future.
type ReplayProvider struct {
	mu     sync.RWMutex
	series map[string][]domain.Bar
	asOf   time.Time
}

// NewReplayProvider wraps series keyed by upper-case symbol
func NewReplayProvider(series map[string][]domain.Bar) *ReplayProvider {
	return &ReplayProvider{series: series}
}

// SetAsOf moves the replay cursor
func (p *ReplayProvider) SetAsOf(t time.Time) {
	p.mu.Lock()
	p.asOf = t
	p.mu.Unlock()
}

// GetHistory implements domain.MarketDataProvider
func (p *ReplayProvider) GetHistory(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	bars := p.series[strings.ToUpper(req.Symbol)]
	n := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date.After(p.asOf)
	})
	out := make([]domain.Bar, n)
	copy(out, bars[:n])
	return out, domain.IntervalWeek, nil
}
