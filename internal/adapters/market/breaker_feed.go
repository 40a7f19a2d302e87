// internal/adapters/market/breaker_feed.go
package market

import (
	"context"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/infrastructure/api/breaker"
)

// BreakerFeed пропускает чтение баров через предохранитель
type BreakerFeed struct {
	feed    BarSource
	breaker *breaker.Breaker
}

// NewBreakerFeed оборачивает фид предохранителем
func NewBreakerFeed(feed BarSource, settings breaker.Settings) *BreakerFeed {
	if settings.Name == "" {
		settings.Name = "bar-feed"
	}
	return &BreakerFeed{
		feed:    feed,
		breaker: breaker.New(settings),
	}
}

// FetchBars читает бары, пока предохранитель замкнут
func (f *BreakerFeed) FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.feed.FetchBars(ctx, symbol, timeframe, count)
	})
	if err != nil {
		return nil, fmt.Errorf("market feed %s/%s: %w", symbol, timeframe, err)
	}
	bars, _ := result.([]key_levels.Bar)
	return bars, nil
}

// State состояние предохранителя
func (f *BreakerFeed) State() string {
	return f.breaker.State()
}
