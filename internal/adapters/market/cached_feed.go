// internal/adapters/market/cached_feed.go
package market

import (
	"context"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/pkg/logger"
	"key-level-engine/pkg/period"
	"time"
)

// staleAfterPeriods — сколько периодов может отставать последний бар кэша
const staleAfterPeriods = 2

// BarSource первичный источник баров (Postgres)
type BarSource interface {
	FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error)
}

// BarCache кэш баров (Redis)
type BarCache interface {
	GetHistory(ctx context.Context, symbol, timeframe string, limit int) ([]key_levels.Bar, error)
	SaveBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) error
}

// CachedFeed отдает бары из кэша, если их хватает и они свежие,
// иначе читает источник и дописывает кэш.
type CachedFeed struct {
	source BarSource
	cache  BarCache
	now    func() time.Time
}

// NewCachedFeed создает фид. cache может быть nil.
func NewCachedFeed(source BarSource, cache BarCache) (*CachedFeed, error) {
	if source == nil {
		return nil, fmt.Errorf("источник баров не задан")
	}
	return &CachedFeed{
		source: source,
		cache:  cache,
		now:    time.Now,
	}, nil
}

// FetchBars возвращает последние count баров по возрастанию времени
func (f *CachedFeed) FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error) {
	if f.cache != nil {
		cached, err := f.cache.GetHistory(ctx, symbol, timeframe, count)
		switch {
		case err != nil:
			logger.Warn("⚠️ Кэш баров %s/%s недоступен: %v", symbol, timeframe, err)
		case len(cached) >= count && f.isFresh(cached, timeframe):
			logger.Debug("📦 %s/%s: %d баров из кэша", symbol, timeframe, len(cached))
			return cached, nil
		}
	}

	bars, err := f.source.FetchBars(ctx, symbol, timeframe, count)
	if err != nil {
		return nil, err
	}

	if f.cache != nil && len(bars) > 0 {
		if err := f.cache.SaveBars(ctx, symbol, timeframe, bars); err != nil {
			logger.Warn("⚠️ Не удалось обновить кэш баров %s/%s: %v", symbol, timeframe, err)
		}
	}
	return bars, nil
}

func (f *CachedFeed) isFresh(bars []key_levels.Bar, timeframe string) bool {
	last := bars[len(bars)-1].Time
	return f.now().Sub(last) <= staleAfterPeriods*period.PeriodToDuration(timeframe)
}
