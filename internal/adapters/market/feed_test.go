// internal/adapters/market/feed_test.go
package market

import (
	"context"
	"errors"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/infrastructure/api/breaker"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error) {
	args := m.Called(ctx, symbol, timeframe, count)
	bars, _ := args.Get(0).([]key_levels.Bar)
	return bars, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetHistory(ctx context.Context, symbol, timeframe string, limit int) ([]key_levels.Bar, error) {
	args := m.Called(ctx, symbol, timeframe, limit)
	bars, _ := args.Get(0).([]key_levels.Bar)
	return bars, args.Error(1)
}

func (m *mockCache) SaveBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) error {
	return m.Called(ctx, symbol, timeframe, bars).Error(0)
}

var feedEnd = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func hourlyBars(n int) []key_levels.Bar {
	bars := make([]key_levels.Bar, n)
	start := feedEnd.Add(-time.Duration(n-1) * time.Hour)
	for i := range bars {
		bars[i] = key_levels.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: 1, High: 1.1, Low: 0.9, Close: 1, Volume: 10}
	}
	return bars
}

func newTestFeed(source BarSource, cache BarCache, now time.Time) *CachedFeed {
	f, _ := NewCachedFeed(source, cache)
	f.now = func() time.Time { return now }
	return f
}

func TestNewCachedFeedRequiresSource(t *testing.T) {
	_, err := NewCachedFeed(nil, nil)
	assert.Error(t, err)
}

func TestCachedFeedServesFreshCache(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	cache := new(mockCache)
	cached := hourlyBars(5)
	cache.On("GetHistory", ctx, "EURUSD", "1h", 5).Return(cached, nil)

	feed := newTestFeed(source, cache, feedEnd.Add(30*time.Minute))
	bars, err := feed.FetchBars(ctx, "EURUSD", "1h", 5)

	require.NoError(t, err)
	assert.Equal(t, cached, bars)
	source.AssertNotCalled(t, "FetchBars", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedFeedFallsBackWhenCacheShort(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	cache := new(mockCache)
	full := hourlyBars(5)
	cache.On("GetHistory", ctx, "EURUSD", "1h", 5).Return(full[3:], nil)
	source.On("FetchBars", ctx, "EURUSD", "1h", 5).Return(full, nil)
	cache.On("SaveBars", ctx, "EURUSD", "1h", full).Return(nil)

	feed := newTestFeed(source, cache, feedEnd)
	bars, err := feed.FetchBars(ctx, "EURUSD", "1h", 5)

	require.NoError(t, err)
	assert.Len(t, bars, 5)
	source.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCachedFeedRefreshesStaleCache(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	cache := new(mockCache)
	full := hourlyBars(5)
	cache.On("GetHistory", ctx, "EURUSD", "1h", 5).Return(full, nil)
	source.On("FetchBars", ctx, "EURUSD", "1h", 5).Return(full, nil)
	cache.On("SaveBars", ctx, "EURUSD", "1h", full).Return(errors.New("read-only replica"))

	feed := newTestFeed(source, cache, feedEnd.Add(3*time.Hour))
	bars, err := feed.FetchBars(ctx, "EURUSD", "1h", 5)

	require.NoError(t, err)
	assert.Equal(t, full, bars)
	source.AssertExpectations(t)
}

func TestCachedFeedCacheErrorAndSourceError(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	cache := new(mockCache)
	cache.On("GetHistory", ctx, "EURUSD", "1h", 5).Return(nil, errors.New("redis down"))
	source.On("FetchBars", ctx, "EURUSD", "1h", 5).Return(nil, errors.New("db down"))

	feed := newTestFeed(source, cache, feedEnd)
	_, err := feed.FetchBars(ctx, "EURUSD", "1h", 5)

	assert.ErrorContains(t, err, "db down")
	cache.AssertNotCalled(t, "SaveBars", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedFeedWithoutCache(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	source.On("FetchBars", ctx, "GBPUSD", "4h", 3).Return(hourlyBars(3), nil)

	feed := newTestFeed(source, nil, feedEnd)
	bars, err := feed.FetchBars(ctx, "GBPUSD", "4h", 3)

	require.NoError(t, err)
	assert.Len(t, bars, 3)
}

func TestBreakerFeedOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	source.On("FetchBars", ctx, "EURUSD", "1h", 10).Return(nil, errors.New("db down")).Times(2)

	feed := NewBreakerFeed(source, breaker.Settings{MaxFailures: 2, OpenTimeout: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := feed.FetchBars(ctx, "EURUSD", "1h", 10)
		assert.ErrorContains(t, err, "db down")
	}
	assert.Equal(t, "open", feed.State())

	_, err := feed.FetchBars(ctx, "EURUSD", "1h", 10)
	assert.ErrorIs(t, err, breaker.ErrOpen)
	source.AssertNumberOfCalls(t, "FetchBars", 2)
}

func TestBreakerFeedPassesBars(t *testing.T) {
	ctx := context.Background()
	source := new(mockSource)
	want := hourlyBars(4)
	source.On("FetchBars", ctx, "EURUSD", "1h", 4).Return(want, nil)

	feed := NewBreakerFeed(source, breaker.Settings{})
	bars, err := feed.FetchBars(ctx, "EURUSD", "1h", 4)

	require.NoError(t, err)
	assert.Equal(t, want, bars)
	assert.Equal(t, "closed", feed.State())
}
