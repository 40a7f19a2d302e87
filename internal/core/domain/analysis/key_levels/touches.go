// internal/core/domain/analysis/key_levels/touches.go
package key_levels

import "math"

const (
	sameEventBars         = 3   // касания ближе этого считаются одним событием
	maxConsecutiveTouches = 2   // длиннее — событие не засчитывается
	minBounceFraction     = 0.5 // отскок должен превысить 0.5 зоны
	cleanApproachFraction = 0.8 // повторный подход ближе 0.8 зоны делает отскок «грязным»
)

// TouchAnalyzer считает касания уровня и качество отскоков
type TouchAnalyzer struct {
	touchZone float64
	maxDelay  int
}

// NewTouchAnalyzer создаёт анализатор
func NewTouchAnalyzer(touchZone float64, maxBounceDelayBars int) *TouchAnalyzer {
	return &TouchAnalyzer{touchZone: touchZone, maxDelay: maxBounceDelayBars}
}

type touchEvent struct {
	index  int
	bounce float64
	delay  int
	clean  bool
}

// Analyze проходит по всем барам и собирает засчитанные касания уровня
func (a *TouchAnalyzer) Analyze(bars []Bar, price float64, resistance bool) TouchQuality {
	var events []touchEvent
	lastTouch := -1
	current := -1 // индекс текущего события в events, -1 если оно не засчитано
	streak := 0
	maxStreak := 0

	for i := range bars {
		if math.Abs(extremeFor(bars[i], resistance)-price) > a.touchZone {
			continue
		}

		if lastTouch >= 0 && i-lastTouch < sameEventBars {
			lastTouch = i
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
			if streak > maxConsecutiveTouches && current >= 0 {
				events = events[:current]
				current = -1
			}
			continue
		}

		lastTouch = i
		streak = 0
		bounce, delay, clean, ok := a.measureBounce(bars, i, price, resistance)
		if !ok {
			current = -1
			continue
		}
		events = append(events, touchEvent{index: i, bounce: bounce, delay: delay, clean: clean})
		current = len(events) - 1
	}

	return aggregateTouches(events, maxStreak)
}

// measureBounce — максимальный откат от уровня в пределах maxDelay баров
func (a *TouchAnalyzer) measureBounce(bars []Bar, i int, price float64, resistance bool) (float64, int, bool, bool) {
	end := minInt(i+a.maxDelay, len(bars)-1)
	best := 0.0
	bestIdx := -1
	for j := i + 1; j <= end; j++ {
		var r float64
		if resistance {
			r = price - bars[j].Low
		} else {
			r = bars[j].High - price
		}
		if r > best {
			best = r
			bestIdx = j
		}
	}
	if bestIdx < 0 || best <= minBounceFraction*a.touchZone {
		return 0, 0, false, false
	}

	clean := true
	for k := i + 1; k < bestIdx; k++ {
		if math.Abs(extremeFor(bars[k], resistance)-price) <= cleanApproachFraction*a.touchZone {
			clean = false
			break
		}
	}
	return best, bestIdx - i, clean, true
}

func aggregateTouches(events []touchEvent, maxStreak int) TouchQuality {
	q := TouchQuality{
		TouchCount:         len(events),
		ConsecutiveTouches: maxStreak,
	}
	if len(events) == 0 {
		return q
	}

	q.QuickestBounce = events[0].delay
	q.SlowestBounce = events[0].delay
	q.CleanBounces = true
	q.TouchIndices = make([]int, 0, len(events))

	sumBounce := 0.0
	sumDelay := 0
	for _, e := range events {
		sumBounce += e.bounce
		sumDelay += e.delay
		if e.bounce > q.MaxBounceSize {
			q.MaxBounceSize = e.bounce
		}
		if e.delay < q.QuickestBounce {
			q.QuickestBounce = e.delay
		}
		if e.delay > q.SlowestBounce {
			q.SlowestBounce = e.delay
		}
		if !e.clean {
			q.CleanBounces = false
		}
		q.TouchIndices = append(q.TouchIndices, e.index)
	}

	n := float64(len(events))
	q.AvgBounceStrength = sumBounce / n
	q.AvgBounceBars = float64(sumDelay) / n
	if q.MaxBounceSize > 0 {
		q.BounceConsistency = q.AvgBounceStrength / q.MaxBounceSize
	}
	if len(events) > 1 {
		q.TouchSpacing = float64(events[len(events)-1].index-events[0].index) / (n - 1)
	}
	return q
}

func extremeFor(b Bar, resistance bool) float64 {
	if resistance {
		return b.High
	}
	return b.Low
}
