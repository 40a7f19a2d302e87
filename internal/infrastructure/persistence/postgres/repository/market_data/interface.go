package market_data_repo

import (
	"context"
	"key-level-engine/internal/core/domain/analysis/key_levels"
)

// MarketDataRepository интерфейс доступа к таблице market_data
type MarketDataRepository interface {
	// FetchBars возвращает последние count баров от старых к новым
	FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error)
	// SaveBars вставляет бары, существующие (symbol, timeframe, ts) пропускаются
	SaveBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) (int64, error)
}
