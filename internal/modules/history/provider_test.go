package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/domain"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*CachingProvider, *testingpkg.MockMarketDataProvider, *time.Time) {
	t.Helper()
	upstream := testingpkg.NewMockMarketDataProvider()
	repo := newTestRepository(t)
	clock := testingpkg.FixtureStart.Add(30 * testingpkg.Day)
	repo.now = func() time.Time { return clock }

	p := NewCachingProvider(upstream, repo, time.Hour, zerolog.New(nil).Level(zerolog.Disabled))
	p.now = func() time.Time { return clock }
	return p, upstream, &clock
}

// horizonUpstream returns only the bars inside the requested horizon
type horizonUpstream struct {
	bars  []domain.Bar
	now   func() time.Time
	calls []int
}

func (u *horizonUpstream) GetHistory(_ context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	u.calls = append(u.calls, req.HorizonDays)
	since := u.now().AddDate(0, 0, -req.HorizonDays)
	var out []domain.Bar
	for _, b := range u.bars {
		if !b.Date.Before(since) {
			out = append(out, b)
		}
	}
	return out, req.ResolvedInterval(), nil
}

func dailyRequest(symbol string) domain.HistoryRequest {
	return domain.HistoryRequest{Symbol: symbol, Interval: domain.IntervalDay, HorizonDays: 365}
}

func TestCachingProvider_ServesFreshBarsFromStore(t *testing.T) {
	p, upstream, _ := newTestProvider(t)
	bars := testingpkg.TrendBars(20, 100, 1, testingpkg.Day)
	upstream.SetBars("BTC", domain.IntervalDay, bars)
	ctx := context.Background()

	got, interval, err := p.GetHistory(ctx, dailyRequest("btc"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntervalDay, interval)
	assert.Equal(t, bars, got)
	require.Len(t, upstream.Calls(), 1)

	got, _, err = p.GetHistory(ctx, dailyRequest("BTC"))
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	assert.Len(t, upstream.Calls(), 1)
}

func TestCachingProvider_RefetchesWhenHorizonWidens(t *testing.T) {
	bars := testingpkg.FlatBars(600, 100, testingpkg.Week)
	clock := bars[len(bars)-1].Date
	now := func() time.Time { return clock }

	upstream := &horizonUpstream{bars: bars, now: now}
	repo := newTestRepository(t)
	repo.now = now
	p := NewCachingProvider(upstream, repo, time.Hour, zerolog.New(nil).Level(zerolog.Disabled))
	p.now = now
	ctx := context.Background()

	weekly := func(days int) domain.HistoryRequest {
		return domain.HistoryRequest{Symbol: "BTC", Interval: domain.IntervalWeek, HorizonDays: days}
	}

	short, _, err := p.GetHistory(ctx, weekly(1825))
	require.NoError(t, err)
	require.NotEmpty(t, short)

	long, _, err := p.GetHistory(ctx, weekly(4000))
	require.NoError(t, err)
	assert.Equal(t, []int{1825, 4000}, upstream.calls)
	assert.Greater(t, len(long), len(short))
	assert.True(t, long[0].Date.Before(short[0].Date))
	assert.False(t, long[0].Date.Before(clock.AddDate(0, 0, -4000)))

	// the wider coverage now serves the short horizon from the store
	again, _, err := p.GetHistory(ctx, weekly(1825))
	require.NoError(t, err)
	assert.Equal(t, short, again)
	assert.Len(t, upstream.calls, 2)
}

func TestCachingProvider_RefreshesStaleBars(t *testing.T) {
	p, upstream, clock := newTestProvider(t)
	upstream.SetBars("BTC", domain.IntervalDay, testingpkg.FlatBars(20, 100, testingpkg.Day))
	ctx := context.Background()

	_, _, err := p.GetHistory(ctx, dailyRequest("BTC"))
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Hour)
	_, _, err = p.GetHistory(ctx, dailyRequest("BTC"))
	require.NoError(t, err)
	assert.Len(t, upstream.Calls(), 2)
}

func TestCachingProvider_StaleOnError(t *testing.T) {
	p, upstream, clock := newTestProvider(t)
	bars := testingpkg.FlatBars(20, 100, testingpkg.Day)
	upstream.SetBars("BTC", domain.IntervalDay, bars)
	ctx := context.Background()

	_, _, err := p.GetHistory(ctx, dailyRequest("BTC"))
	require.NoError(t, err)

	*clock = clock.Add(24 * time.Hour)
	upstream.SetError("BTC", errors.New("rate limited"))

	got, interval, err := p.GetHistory(ctx, dailyRequest("BTC"))
	require.NoError(t, err)
	assert.Equal(t, domain.IntervalDay, interval)
	assert.Equal(t, bars, got)
}

func TestCachingProvider_ErrorWithoutStoredBars(t *testing.T) {
	p, upstream, _ := newTestProvider(t)
	upstream.SetError("BTC", errors.New("rate limited"))

	_, _, err := p.GetHistory(context.Background(), dailyRequest("BTC"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCachingProvider_Sync(t *testing.T) {
	p, upstream, _ := newTestProvider(t)
	upstream.SetBars("BTC", domain.IntervalDay, testingpkg.FlatBars(5, 100, testingpkg.Day))
	upstream.SetBars("ETH", domain.IntervalDay, testingpkg.FlatBars(5, 10, testingpkg.Day))
	upstream.SetError("BAD", errors.New("unknown symbol"))
	ctx := context.Background()

	failed := p.Sync(ctx, []string{"BTC", "ETH", "BAD"}, 365, domain.IntervalDay)
	assert.Equal(t, 1, failed)

	stored, err := p.repo.Get(ctx, "ETH", domain.IntervalDay, time.Time{})
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Equal(t, 2, p.Sync(cancelled, []string{"BTC", "ETH"}, 365, domain.IntervalDay))
}
