// internal/core/domain/analysis/key_levels/helpers_test.go
package key_levels

import (
	"time"
)

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// barsFromHL строит часовые бары по максимумам и минимумам
func barsFromHL(highs, lows []float64) []Bar {
	bars := make([]Bar, len(highs))
	for i := range highs {
		mid := (highs[i] + lows[i]) / 2
		bars[i] = Bar{
			Time:   testStart.Add(time.Duration(i) * time.Hour),
			Open:   mid,
			High:   highs[i],
			Low:    lows[i],
			Close:  mid,
			Volume: 100,
		}
	}
	return bars
}

// barsFromPips строит бары по середине в десятитысячных долях, high/low = середина ± 2
func barsFromPips(mids []int) []Bar {
	highs := make([]float64, len(mids))
	lows := make([]float64, len(mids))
	for i, m := range mids {
		highs[i] = float64(m+2) / 10000
		lows[i] = float64(m-2) / 10000
	}
	return barsFromHL(highs, lows)
}

// zigzagMids — три впадины у 1.1000 (бары 2, 12, 22) и три пика у 1.1050 (7, 17, 27),
// затем спуск и плато до бара 34
func zigzagMids() []int {
	up := []int{11011, 11020, 11029, 11038, 11048}
	down := []int{11038, 11029, 11020, 11011, 11002}

	mids := []int{11020, 11011, 11002}
	for k := 0; k < 2; k++ {
		mids = append(mids, up...)
		mids = append(mids, down...)
	}
	mids = append(mids, up...)
	mids = append(mids, 11038, 11029, 11020, 11020, 11020, 11020, 11020)
	return mids
}

func scenarioABars() []Bar {
	return barsFromPips(zigzagMids())
}

func scenarioAConfig() Config {
	cfg := DefaultConfig()
	cfg.Symbol = "EURUSD"
	cfg.Timeframe = "1h"
	cfg.LookbackBars = 25
	cfg.TouchZone = 0.0005
	cfg.MinTouches = 2
	cfg.AdvancedValidation = false
	return cfg
}

// trendBars — строго монотонный рост без свингов
func trendBars(n int) []Bar {
	mids := make([]int, n)
	for i := range mids {
		mids[i] = 11000 + 10*i
	}
	return barsFromPips(mids)
}
