// internal/core/domain/analysis/key_levels/swing.go
package key_levels

import "key-level-engine/pkg/logger"

const (
	basicWing           = 2 // бары с каждой стороны в базовом режиме
	slopeWing           = 3 // монотонный склон в расширенном режиме
	minViableCandidates = 5 // ниже — вторая половина окна сканируется в базовом режиме
)

// SwingScanner ищет кандидатов в уровни — локальные экстремумы
type SwingScanner struct {
	advanced       bool
	minSwingHeight float64
	dominance      int
}

// NewSwingScanner создаёт сканер для таймфрейма и зоны касания
func NewSwingScanner(advanced bool, timeframe string, touchZone float64) *SwingScanner {
	minutes := timeframeMinutes(timeframe)
	return &SwingScanner{
		advanced:       advanced,
		minSwingHeight: touchZone * swingHeightMultiplier(minutes),
		dominance:      dominanceWindow(minutes),
	}
}

// Scan возвращает свинги в порядке индексов
func (s *SwingScanner) Scan(bars []Bar) []Pivot {
	n := len(bars)
	if !s.advanced {
		return s.scanBasic(bars, 0, n)
	}

	half := n / 2
	pivots := s.scanAdvanced(bars, 0, half)
	if len(pivots) < minViableCandidates {
		logger.Debug("🔍 Расширенная валидация дала %d кандидатов на первой половине окна, вторая половина в базовом режиме",
			len(pivots))
		return append(pivots, s.scanBasic(bars, half, n)...)
	}
	return append(pivots, s.scanAdvanced(bars, half, n)...)
}

func (s *SwingScanner) scanBasic(bars []Bar, from, to int) []Pivot {
	var pivots []Pivot
	start := maxInt(from, basicWing)
	end := minInt(to, len(bars)-basicWing)
	for i := start; i < end; i++ {
		if isBasicHigh(bars, i) {
			pivots = append(pivots, newPivot(bars, i, true))
		}
		if isBasicLow(bars, i) {
			pivots = append(pivots, newPivot(bars, i, false))
		}
	}
	return pivots
}

func (s *SwingScanner) scanAdvanced(bars []Bar, from, to int) []Pivot {
	var pivots []Pivot
	wing := maxInt(slopeWing, s.dominance)
	start := maxInt(from, wing)
	end := minInt(to, len(bars)-wing)
	for i := start; i < end; i++ {
		if s.isAdvancedHigh(bars, i) {
			pivots = append(pivots, newPivot(bars, i, true))
		}
		if s.isAdvancedLow(bars, i) {
			pivots = append(pivots, newPivot(bars, i, false))
		}
	}
	return pivots
}

func isBasicHigh(bars []Bar, i int) bool {
	h := bars[i].High
	return h > bars[i-2].High && h > bars[i-1].High && h > bars[i+1].High && h > bars[i+2].High
}

func isBasicLow(bars []Bar, i int) bool {
	l := bars[i].Low
	return l < bars[i-2].Low && l < bars[i-1].Low && l < bars[i+1].Low && l < bars[i+2].Low
}

// isAdvancedHigh: монотонные склоны, минимальная высота, единственный максимум в окне
func (s *SwingScanner) isAdvancedHigh(bars []Bar, i int) bool {
	for k := 1; k <= slopeWing; k++ {
		if bars[i-k].High >= bars[i-k+1].High || bars[i+k].High >= bars[i+k-1].High {
			return false
		}
	}

	lowest := bars[i].Low
	for j := i - slopeWing; j <= i+slopeWing; j++ {
		if bars[j].Low < lowest {
			lowest = bars[j].Low
		}
	}
	if bars[i].High-lowest < s.minSwingHeight {
		return false
	}

	for j := i - s.dominance; j <= i+s.dominance; j++ {
		if j != i && bars[j].High >= bars[i].High {
			return false
		}
	}
	return true
}

func (s *SwingScanner) isAdvancedLow(bars []Bar, i int) bool {
	for k := 1; k <= slopeWing; k++ {
		if bars[i-k].Low <= bars[i-k+1].Low || bars[i+k].Low <= bars[i+k-1].Low {
			return false
		}
	}

	highest := bars[i].High
	for j := i - slopeWing; j <= i+slopeWing; j++ {
		if bars[j].High > highest {
			highest = bars[j].High
		}
	}
	if highest-bars[i].Low < s.minSwingHeight {
		return false
	}

	for j := i - s.dominance; j <= i+s.dominance; j++ {
		if j != i && bars[j].Low <= bars[i].Low {
			return false
		}
	}
	return true
}

func newPivot(bars []Bar, i int, isHigh bool) Pivot {
	price := bars[i].Low
	if isHigh {
		price = bars[i].High
	}
	return Pivot{
		Index:            i,
		Price:            price,
		Time:             bars[i].Time,
		IsHigh:           isHigh,
		SlopeConsistency: slopeConsistency(bars, i, isHigh),
	}
}

// slopeConsistency — доля монотонных шагов в ±3 барах вокруг свинга
func slopeConsistency(bars []Bar, i int, isHigh bool) float64 {
	extreme := func(b Bar) float64 {
		if isHigh {
			return b.High
		}
		return -b.Low
	}

	monotonic := 0
	for k := 1; k <= slopeWing; k++ {
		if i-k >= 0 && extreme(bars[i-k]) < extreme(bars[i-k+1]) {
			monotonic++
		}
		if i+k < len(bars) && extreme(bars[i+k]) < extreme(bars[i+k-1]) {
			monotonic++
		}
	}
	return float64(monotonic) / float64(2*slopeWing)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
