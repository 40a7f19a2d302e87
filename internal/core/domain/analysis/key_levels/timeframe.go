// internal/core/domain/analysis/key_levels/timeframe.go
package key_levels

import "key-level-engine/pkg/period"

// timeframeMinutes переводит таймфрейм в минуты, невалидный — в период по умолчанию
func timeframeMinutes(tf string) int {
	minutes, err := period.StringToMinutes(tf)
	if err != nil || minutes <= 0 {
		return period.DefaultMinutes
	}
	return minutes
}

// dedupZoneMultiplier — расширение зоны дедупликации на старших таймфреймах
func dedupZoneMultiplier(minutes int) float64 {
	switch {
	case minutes <= period.Minutes15:
		return 1.0
	case minutes <= period.Minutes30:
		return 1.2
	case minutes <= period.Minutes60:
		return 1.5
	case minutes <= period.Minutes240:
		return 2.0
	default:
		return 2.5
	}
}

// swingHeightMultiplier — минимальная высота свинга в долях зоны касания
func swingHeightMultiplier(minutes int) float64 {
	switch {
	case minutes <= period.Minutes15:
		return 1.0
	case minutes <= period.Minutes30:
		return 1.25
	case minutes <= period.Minutes60:
		return 1.5
	case minutes <= period.Minutes240:
		return 2.0
	default:
		return 3.0
	}
}

// dominanceWindow — сколько баров с каждой стороны свинг должен доминировать
func dominanceWindow(minutes int) int {
	switch {
	case minutes <= period.Minutes15:
		return 3
	case minutes <= period.Minutes60:
		return 4
	case minutes <= period.Minutes240:
		return 5
	default:
		return 6
	}
}

// timeframeBonus — бонус к силе за старший таймфрейм
func timeframeBonus(minutes int) float64 {
	switch {
	case minutes <= period.Minutes5:
		return 0
	case minutes <= period.Minutes15:
		return 0.01
	case minutes <= period.Minutes30:
		return 0.02
	case minutes <= period.Minutes60:
		return 0.03
	case minutes <= period.Minutes240:
		return 0.04
	default:
		return 0.05
	}
}
