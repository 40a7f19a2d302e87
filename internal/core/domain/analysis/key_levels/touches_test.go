// internal/core/domain/analysis/key_levels/touches_test.go
package key_levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withLows(highs []float64, depth float64) []float64 {
	lows := make([]float64, len(highs))
	for i, h := range highs {
		lows[i] = h - depth
	}
	return lows
}

func TestTouchAnalyzerCleanRepeatedBounces(t *testing.T) {
	bars := scenarioABars()
	a := NewTouchAnalyzer(0.0005, 8)

	q := a.Analyze(bars, 1.1050, true)
	assert.Equal(t, 3, q.TouchCount)
	assert.Equal(t, []int{7, 17, 27}, q.TouchIndices)
	assert.Equal(t, 3, q.QuickestBounce)
	assert.Equal(t, 5, q.SlowestBounce)
	assert.InDelta(t, 0.0050, q.MaxBounceSize, 1e-9)
	assert.InDelta(t, 0.0044, q.AvgBounceStrength, 1e-9)
	assert.InDelta(t, 0.88, q.BounceConsistency, 1e-9)
	assert.InDelta(t, 10.0, q.TouchSpacing, 1e-9)
	assert.True(t, q.CleanBounces)
	assert.Equal(t, 0, q.ConsecutiveTouches)

	support := a.Analyze(bars, 1.1000, false)
	assert.Equal(t, 3, support.TouchCount)
	assert.InDelta(t, 1.0, support.BounceConsistency, 1e-9)
}

func TestTouchAnalyzerIgnoresBrushWithoutBounce(t *testing.T) {
	// касание на баре 3, после чего цена уходит выше уровня
	highs := []float64{1.1950, 1.1970, 1.1985, 1.2000, 1.2030, 1.2050, 1.2070, 1.2090, 1.2110, 1.2130, 1.2150, 1.2170}
	bars := barsFromHL(highs, withLows(highs, 0.0010))

	q := NewTouchAnalyzer(0.0010, 8).Analyze(bars, 1.2000, true)
	assert.Equal(t, 0, q.TouchCount)
	assert.False(t, q.CleanBounces)
}

func TestTouchAnalyzerMergesAdjacentTouches(t *testing.T) {
	highs := []float64{1.1950, 1.1970, 1.1980, 1.2000, 1.1995, 1.1960, 1.1940, 1.1930, 1.1920, 1.1910, 1.1900, 1.1890}
	bars := barsFromHL(highs, withLows(highs, 0.0010))

	q := NewTouchAnalyzer(0.0010, 8).Analyze(bars, 1.2000, true)
	assert.Equal(t, 1, q.TouchCount)
	assert.Equal(t, 1, q.ConsecutiveTouches)
	assert.Equal(t, []int{3}, q.TouchIndices)
	assert.Equal(t, 8, q.SlowestBounce)
	// бар 4 снова подходит к уровню до завершения отскока
	assert.False(t, q.CleanBounces)
}

func TestTouchAnalyzerDiscountsLongStreak(t *testing.T) {
	highs := []float64{1.1950, 1.1970, 1.1980, 1.2000, 1.1998, 1.2001, 1.1999, 1.1950, 1.1930, 1.1920, 1.1910, 1.1900, 1.1890, 1.1880}
	bars := barsFromHL(highs, withLows(highs, 0.0010))

	q := NewTouchAnalyzer(0.0010, 8).Analyze(bars, 1.2000, true)
	assert.Equal(t, 0, q.TouchCount)
	assert.Equal(t, 3, q.ConsecutiveTouches)
}

func TestTouchAnalyzerWideZoneCollapsesIntoStreak(t *testing.T) {
	bars := scenarioABars()

	// при зоне 0.004 почти каждый бар касается уровня
	q := NewTouchAnalyzer(0.004, 2).Analyze(bars, 1.1050, true)
	assert.Equal(t, 0, q.TouchCount)
	assert.Greater(t, q.ConsecutiveTouches, maxConsecutiveTouches)
}
