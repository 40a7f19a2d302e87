// /internal/infrastructure/persistence/postgres/repository/market_data/repository.go
package market_data_repo

import (
	"context"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/infrastructure/persistence/postgres/models"
	"key-level-engine/pkg/logger"

	"github.com/jmoiron/sqlx"
)

type marketDataRepoImpl struct {
	db *sqlx.DB
}

// NewMarketDataRepository создаёт реализацию MarketDataRepository
func NewMarketDataRepository(db *sqlx.DB) MarketDataRepository {
	return &marketDataRepoImpl{db: db}
}

// FetchBars читает хвост истории и разворачивает его в хронологический порядок
func (r *marketDataRepoImpl) FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error) {
	if count <= 0 {
		return nil, fmt.Errorf("MarketDataRepo.FetchBars: count must be positive, got %d", count)
	}

	query := `
		SELECT symbol, timeframe, ts, open, high, low, close, volume
		FROM market_data
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT $3
	`
	var rows []models.MarketBar
	if err := r.db.SelectContext(ctx, &rows, query, symbol, timeframe, count); err != nil {
		return nil, fmt.Errorf("MarketDataRepo.FetchBars: %w", err)
	}

	bars := make([]key_levels.Bar, len(rows))
	for i, row := range rows {
		bars[len(rows)-1-i] = row.ToBar()
	}
	return bars, nil
}

// SaveBars вставляет бары одной транзакцией
func (r *marketDataRepoImpl) SaveBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("MarketDataRepo.SaveBars: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO market_data (symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (:symbol, :timeframe, :ts, :open, :high, :low, :close, :volume)
		ON CONFLICT (symbol, timeframe, ts) DO NOTHING
	`
	var inserted int64
	for _, b := range bars {
		res, err := tx.NamedExecContext(ctx, query, models.NewMarketBar(symbol, timeframe, b))
		if err != nil {
			return 0, fmt.Errorf("MarketDataRepo.SaveBars: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("MarketDataRepo.SaveBars: %w", err)
	}

	logger.Info("💾 market_data: %s/%s сохранено %d из %d баров", symbol, timeframe, inserted, len(bars))
	return inserted, nil
}
