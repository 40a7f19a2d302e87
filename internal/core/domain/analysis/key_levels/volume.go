// internal/core/domain/analysis/key_levels/volume.go
package key_levels

import "math"

const (
	DefaultVolumePeriod          = 20
	DefaultVolumeSpikeMultiplier = 2.0

	maxVolumeBonus     = 0.15
	volumeBonusCeiling = 0.98
)

// VolumeConfirmation — результат проверки объёма на баре касания
type VolumeConfirmation struct {
	Index     int
	Average   float64
	Ratio     float64
	Confirmed bool
	Bonus     float64
}

// VolumeHelper сравнивает объём бара со скользящим средним
type VolumeHelper struct {
	period int
	spike  float64
}

// NewVolumeHelper создаёт помощника; непозитивные параметры заменяются значениями по умолчанию
func NewVolumeHelper(period int, spike float64) *VolumeHelper {
	if period <= 0 {
		period = DefaultVolumePeriod
	}
	if spike <= 0 {
		spike = DefaultVolumeSpikeMultiplier
	}
	return &VolumeHelper{period: period, spike: spike}
}

// AverageVolume — среднее по не более чем period барам до idx, сам idx не учитывается.
// Второе значение — число баров в среднем.
func (h *VolumeHelper) AverageVolume(bars []Bar, idx int) (float64, int) {
	from := maxInt(0, idx-h.period)
	n := idx - from
	if n <= 0 {
		return 0, 0
	}
	sum := 0.0
	for j := from; j < idx; j++ {
		sum += bars[j].Volume
	}
	return sum / float64(n), n
}

// Confirm проверяет всплеск объёма на баре idx
func (h *VolumeHelper) Confirm(bars []Bar, idx int) (VolumeConfirmation, *DataQualityWarning) {
	c := VolumeConfirmation{Index: idx}
	if idx < 0 || idx >= len(bars) {
		return c, nil
	}

	avg, n := h.AverageVolume(bars, idx)
	c.Average = avg
	if n == 0 {
		return c, nil
	}
	if avg <= 0 {
		return c, &DataQualityWarning{Index: idx, Message: "zero average volume"}
	}

	c.Ratio = bars[idx].Volume / avg
	c.Confirmed = c.Ratio >= h.spike
	if c.Confirmed {
		c.Bonus = VolumeBonus(c.Ratio)
	}
	return c, nil
}

// VolumeBonus — мультипликативный бонус за всплеск объёма
func VolumeBonus(ratio float64) float64 {
	if ratio <= 1 {
		return 0
	}
	return math.Min((ratio-1)*0.1, maxVolumeBonus)
}

// ApplyBonus усиливает strength, но бонус сам по себе не поднимает её выше 0.98
func (h *VolumeHelper) ApplyBonus(strength, ratio float64) float64 {
	if ratio < h.spike {
		return strength
	}
	boosted := strength * (1 + VolumeBonus(ratio))
	if boosted > volumeBonusCeiling {
		return math.Max(strength, volumeBonusCeiling)
	}
	return boosted
}
