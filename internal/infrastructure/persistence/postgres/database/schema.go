// internal/infrastructure/persistence/postgres/database/schema.go
package database

import (
	"context"
	"fmt"
	"key-level-engine/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// marketDataSchema — таблица баров, из которой читает фид
const marketDataSchema = `
	CREATE TABLE IF NOT EXISTS market_data (
		symbol    VARCHAR(32)              NOT NULL,
		timeframe VARCHAR(8)               NOT NULL,
		ts        TIMESTAMP WITH TIME ZONE NOT NULL,
		open      DOUBLE PRECISION         NOT NULL,
		high      DOUBLE PRECISION         NOT NULL,
		low       DOUBLE PRECISION         NOT NULL,
		close     DOUBLE PRECISION         NOT NULL,
		volume    DOUBLE PRECISION         NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, timeframe, ts)
	);

	CREATE INDEX IF NOT EXISTS idx_market_data_symbol_tf_ts
		ON market_data (symbol, timeframe, ts DESC);
`

// EnsureSchema создаёт таблицу market_data, если её нет
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, marketDataSchema); err != nil {
		return fmt.Errorf("failed to ensure market_data schema: %w", err)
	}
	logger.Info("✅ Схема market_data готова")
	return nil
}
