// internal/core/domain/analysis/key_levels/scorer.go
package key_levels

import "math"

const (
	MinLevelStrength = 0.40
	MaxLevelStrength = 0.99

	recencyBonus     = 0.35
	stalePenalty     = -0.65
	recencyFreshZone = 0.1
	maxDurationBonus = 0.40
	volumeLevelBonus = 0.08

	consistencyWeight = 0.12
	cleanBonus        = 0.08
	spacingBonus      = 0.06
	spacingThreshold  = 5.0
	maxSpeedBonus     = 0.04
)

// ScoreInput — всё, что нужно для оценки одного кандидата
type ScoreInput struct {
	TouchCount         int
	Quality            TouchQuality
	BarsSinceLastTouch int
	TouchSpanBars      int
	LookbackBars       int
	MaxBounceDelayBars int
	TimeframeMinutes   int
	VolumeConfirmed    bool
}

// ScoreBreakdown — слагаемые итоговой силы
type ScoreBreakdown struct {
	Base      float64
	Recency   float64
	Duration  float64
	Quality   float64
	Timeframe float64
	Volume    float64
	Raw       float64
	Strength  float64
}

// StrengthScorer считает силу уровня
type StrengthScorer struct{}

// Score: base × (1 + модификаторы), результат в [0.40, 0.99]
func (StrengthScorer) Score(in ScoreInput) ScoreBreakdown {
	b := ScoreBreakdown{
		Base:      touchBase(in.TouchCount),
		Recency:   recencyModifier(in.BarsSinceLastTouch, in.LookbackBars),
		Duration:  durationModifier(in.TouchSpanBars, in.LookbackBars),
		Quality:   qualityBonus(in.Quality, in.MaxBounceDelayBars),
		Timeframe: timeframeBonus(in.TimeframeMinutes),
	}
	if in.VolumeConfirmed {
		b.Volume = volumeLevelBonus
	}

	b.Raw = b.Base * (1 + b.Recency + b.Duration + b.Quality + b.Timeframe + b.Volume)
	b.Strength = clamp(b.Raw, MinLevelStrength, MaxLevelStrength)
	return b
}

// touchBase — базовая сила по числу касаний
func touchBase(n int) float64 {
	switch {
	case n <= 1:
		return 0.30
	case n == 2:
		return 0.45
	case n == 3:
		return 0.65
	case n == 4:
		return 0.80
	case n == 5:
		return 0.88
	case n == 6:
		return 0.92
	default:
		return math.Min(0.92+0.005*float64(n-6), 0.97)
	}
}

// recencyModifier: +0.35 в свежей десятой части окна, линейно к нулю, -0.65 за окном
func recencyModifier(barsSince, lookback int) float64 {
	if lookback <= 0 {
		return 0
	}
	if barsSince >= lookback {
		return stalePenalty
	}
	r := float64(maxInt(barsSince, 0)) / float64(lookback)
	if r <= recencyFreshZone {
		return recencyBonus
	}
	return recencyBonus * (1 - (r-recencyFreshZone)/(1-recencyFreshZone))
}

// durationModifier — до +0.40 за протяжённость касаний
func durationModifier(spanBars, lookback int) float64 {
	if lookback <= 0 || spanBars <= 0 {
		return 0
	}
	return math.Min(float64(spanBars)/float64(lookback), 1) * maxDurationBonus
}

func qualityBonus(q TouchQuality, maxDelay int) float64 {
	bonus := q.BounceConsistency * consistencyWeight
	if q.CleanBounces {
		bonus += cleanBonus
	}
	if q.TouchSpacing > spacingThreshold {
		bonus += spacingBonus
	}
	bonus += maxSpeedBonus * bounceSpeed(q, maxDelay)
	return math.Max(bonus, 0)
}

// bounceSpeed — 1 для отскока на следующем баре, 0 на пределе задержки
func bounceSpeed(q TouchQuality, maxDelay int) float64 {
	if q.TouchCount == 0 || maxDelay <= 0 {
		return 0
	}
	return clamp(1-(q.AvgBounceBars-1)/float64(maxDelay), 0, 1)
}

// bounceQuality — сводное качество отскоков в [0, 1]
func bounceQuality(q TouchQuality, maxDelay int) float64 {
	clean := 0.0
	if q.CleanBounces {
		clean = 1
	}
	return clamp(0.5*q.BounceConsistency+0.3*clean+0.2*bounceSpeed(q, maxDelay), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
