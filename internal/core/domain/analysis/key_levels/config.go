// internal/core/domain/analysis/key_levels/config.go
package key_levels

import (
	"fmt"
	"math"

	"key-level-engine/pkg/period"
)

// ValidationBufferBars — запас баров сверх окна для подтверждения отскоков
const ValidationBufferBars = 10

const (
	DefaultLookbackBars       = 200
	DefaultMinStrength        = 0.55
	DefaultMinTouches         = 2
	DefaultMaxBounceDelayBars = 8
	DefaultMaxLevels          = 20
)

// Config — параметры детекции для одного реестра
type Config struct {
	Symbol                string
	Timeframe             string
	LookbackBars          int
	MinStrength           float64
	TouchZone             float64 // 0 = автоматически по ATR
	MinTouches            int
	MaxBounceDelayBars    int
	AdvancedValidation    bool
	MaxLevels             int
	VolumePeriod          int
	VolumeSpikeMultiplier float64
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Symbol:                "EURUSD",
		Timeframe:             period.DefaultPeriod,
		LookbackBars:          DefaultLookbackBars,
		MinStrength:           DefaultMinStrength,
		TouchZone:             0,
		MinTouches:            DefaultMinTouches,
		MaxBounceDelayBars:    DefaultMaxBounceDelayBars,
		AdvancedValidation:    true,
		MaxLevels:             DefaultMaxLevels,
		VolumePeriod:          DefaultVolumePeriod,
		VolumeSpikeMultiplier: DefaultVolumeSpikeMultiplier,
	}
}

// RequiredBars — минимальная длина ряда для прохода
func (c Config) RequiredBars() int {
	return c.LookbackBars + ValidationBufferBars
}

// Validate проверяет диапазоны параметров
func (c Config) Validate() error {
	var problems []string

	if c.Symbol == "" {
		problems = append(problems, "symbol is required")
	}
	if !period.IsValidPeriod(c.Timeframe) {
		problems = append(problems, fmt.Sprintf("timeframe %q is not valid", c.Timeframe))
	}
	if c.LookbackBars < 10 || c.LookbackBars > 2000 {
		problems = append(problems, fmt.Sprintf("lookback bars %d out of range [10, 2000]", c.LookbackBars))
	}
	if math.IsNaN(c.MinStrength) || c.MinStrength < 0.1 || c.MinStrength > 1.0 {
		problems = append(problems, fmt.Sprintf("min strength %.2f out of range [0.1, 1.0]", c.MinStrength))
	}
	if math.IsNaN(c.TouchZone) || math.IsInf(c.TouchZone, 0) || c.TouchZone < 0 {
		problems = append(problems, "touch zone must be >= 0")
	}
	if c.MinTouches < 1 || c.MinTouches > 15 {
		problems = append(problems, fmt.Sprintf("min touches %d out of range [1, 15]", c.MinTouches))
	}
	if c.MaxBounceDelayBars < 1 || c.MaxBounceDelayBars > 50 {
		problems = append(problems, fmt.Sprintf("max bounce delay %d out of range [1, 50]", c.MaxBounceDelayBars))
	}
	if c.MaxLevels < 1 || c.MaxLevels > 500 {
		problems = append(problems, fmt.Sprintf("max levels %d out of range [1, 500]", c.MaxLevels))
	}
	if c.VolumePeriod < 1 || c.VolumePeriod > 500 {
		problems = append(problems, fmt.Sprintf("volume period %d out of range [1, 500]", c.VolumePeriod))
	}
	if math.IsNaN(c.VolumeSpikeMultiplier) || c.VolumeSpikeMultiplier < 1.0 {
		problems = append(problems, "volume spike multiplier must be >= 1.0")
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}
