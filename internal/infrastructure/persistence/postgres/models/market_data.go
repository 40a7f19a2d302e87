// internal/infrastructure/persistence/postgres/models/market_data.go
package models

import (
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"time"
)

// MarketBar — строка таблицы market_data
type MarketBar struct {
	Symbol    string    `db:"symbol"    json:"symbol"`
	Timeframe string    `db:"timeframe" json:"timeframe"`
	Time      time.Time `db:"ts"        json:"ts"`
	Open      float64   `db:"open"      json:"open"`
	High      float64   `db:"high"      json:"high"`
	Low       float64   `db:"low"       json:"low"`
	Close     float64   `db:"close"     json:"close"`
	Volume    float64   `db:"volume"    json:"volume"`
}

// ToBar конвертирует строку в доменный бар
func (m MarketBar) ToBar() key_levels.Bar {
	return key_levels.Bar{
		Time:   m.Time.UTC(),
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
	}
}

// NewMarketBar строит строку из доменного бара
func NewMarketBar(symbol, timeframe string, b key_levels.Bar) MarketBar {
	return MarketBar{
		Symbol:    symbol,
		Timeframe: timeframe,
		Time:      b.Time,
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}
