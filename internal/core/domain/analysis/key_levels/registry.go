// internal/core/domain/analysis/key_levels/registry.go
package key_levels

import (
	"key-level-engine/pkg/logger"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegistryState — состояние реестра
type RegistryState string

const (
	StateEmpty     RegistryState = "empty"
	StatePopulated RegistryState = "populated"
)

// Order — порядок выдачи уровней
type Order int

const (
	OrderDetection Order = iota
	OrderStrength
)

const (
	autoZoneATRFactor   = 0.3
	autoZoneFloorFactor = 0.0001
)

// Registry — текущий набор ключевых уровней одного символа и таймфрейма.
// Проход строит набор целиком и подменяет его под блокировкой.
type Registry struct {
	cfg       Config
	tfMinutes int
	volume    *VolumeHelper
	scorer    StrengthScorer

	mu             sync.RWMutex
	levels         []KeyLevel // по убыванию силы
	state          RegistryState
	lastPass       PassResult
	referencePrice float64
	touchZone      float64
	updatedAt      time.Time
}

// NewRegistry создаёт пустой реестр
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:       cfg,
		tfMinutes: timeframeMinutes(cfg.Timeframe),
		volume:    NewVolumeHelper(cfg.VolumePeriod, cfg.VolumeSpikeMultiplier),
		state:     StateEmpty,
	}, nil
}

// Config возвращает параметры реестра
func (r *Registry) Config() Config {
	return r.cfg
}

// Detect выполняет проход детекции по последним LookbackBars+буфер барам.
// При ошибке входа предыдущий набор остаётся нетронутым.
func (r *Registry) Detect(bars []Bar) (PassResult, error) {
	started := time.Now()
	required := r.cfg.RequiredBars()
	if len(bars) < required {
		return PassResult{}, newInputError(ErrInsufficientData, -1,
			"need %d bars, got %d", required, len(bars))
	}
	if err := ValidateBars(bars); err != nil {
		return PassResult{}, err
	}

	window := bars[len(bars)-required:]
	zone := r.cfg.TouchZone
	if zone == 0 {
		zone = AutoTouchZone(window)
	}

	candidates, warnings := r.buildCandidates(window, zone)
	adjusted := zone * dedupZoneMultiplier(r.tfMinutes)
	levels := SelectLevels(candidates, adjusted, r.cfg.MaxLevels)

	result := PassResult{
		PassID:     uuid.New().String(),
		Candidates: len(candidates),
		Retained:   len(levels),
		TouchZone:  zone,
		Warnings:   warnings,
		Duration:   time.Since(started),
	}

	r.mu.Lock()
	r.levels = levels
	r.state = StatePopulated
	r.lastPass = result
	r.touchZone = zone
	r.referencePrice = window[len(window)-1].Close
	r.updatedAt = time.Now()
	r.mu.Unlock()

	for _, w := range warnings {
		logger.Warn("⚠️ %s %s: %v", r.cfg.Symbol, r.cfg.Timeframe, w)
	}
	logger.Debug("📊 %s %s: кандидатов %d, уровней %d, зона %.6f",
		r.cfg.Symbol, r.cfg.Timeframe, result.Candidates, result.Retained, zone)

	return result, nil
}

// buildCandidates оценивает каждый свинг; уровни ниже порогов отбрасываются
func (r *Registry) buildCandidates(window []Bar, zone float64) ([]KeyLevel, []DataQualityWarning) {
	scanner := NewSwingScanner(r.cfg.AdvancedValidation, r.cfg.Timeframe, zone)
	analyzer := NewTouchAnalyzer(zone, r.cfg.MaxBounceDelayBars)
	pivots := scanner.Scan(window)
	last := len(window) - 1

	var candidates []KeyLevel
	var warnings []DataQualityWarning
	warned := make(map[int]bool)

	for seq, p := range pivots {
		q := analyzer.Analyze(window, p.Price, p.IsHigh)
		if q.TouchCount < r.cfg.MinTouches || len(q.TouchIndices) == 0 {
			continue
		}

		confirmed := false
		maxRatio := 0.0
		for _, idx := range q.TouchIndices {
			c, w := r.volume.Confirm(window, idx)
			if w != nil && !warned[w.Index] {
				warned[w.Index] = true
				warnings = append(warnings, *w)
			}
			if c.Confirmed {
				confirmed = true
			}
			maxRatio = math.Max(maxRatio, c.Ratio)
		}

		first := q.TouchIndices[0]
		lastTouch := q.TouchIndices[len(q.TouchIndices)-1]
		score := r.scorer.Score(ScoreInput{
			TouchCount:         q.TouchCount,
			Quality:            q,
			BarsSinceLastTouch: last - lastTouch,
			TouchSpanBars:      lastTouch - first,
			LookbackBars:       r.cfg.LookbackBars,
			MaxBounceDelayBars: r.cfg.MaxBounceDelayBars,
			TimeframeMinutes:   r.tfMinutes,
			VolumeConfirmed:    confirmed,
		})
		if score.Strength < r.cfg.MinStrength {
			continue
		}

		candidates = append(candidates, KeyLevel{
			Price:            p.Price,
			IsResistance:     p.IsHigh,
			TouchCount:       q.TouchCount,
			Strength:         score.Strength,
			FirstTouchTime:   window[first].Time,
			LastTouchTime:    window[lastTouch].Time,
			VolumeConfirmed:  confirmed,
			VolumeRatio:      maxRatio,
			SlopeConsistency: p.SlopeConsistency,
			BounceQuality:    bounceQuality(q, r.cfg.MaxBounceDelayBars),
			seq:              seq,
			lastTouchIdx:     lastTouch,
		})
	}
	return candidates, warnings
}

// SelectLevels сортирует кандидатов от сильных к слабым, отбрасывает дубли
// ближе adjustedZone к уже принятым и оставляет не больше maxLevels
func SelectLevels(candidates []KeyLevel, adjustedZone float64, maxLevels int) []KeyLevel {
	ranked := make([]KeyLevel, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return strongerThan(ranked[i], ranked[j])
	})

	retained := make([]KeyLevel, 0, len(ranked))
	for _, c := range ranked {
		duplicate := false
		for _, kept := range retained {
			if math.Abs(c.Price-kept.Price) <= adjustedZone {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		retained = append(retained, c)
		if maxLevels > 0 && len(retained) >= maxLevels {
			break
		}
	}
	return retained
}

// strongerThan: сила, затем число касаний, затем свежесть, затем порядок обнаружения
func strongerThan(a, b KeyLevel) bool {
	if a.Strength != b.Strength {
		return a.Strength > b.Strength
	}
	if a.TouchCount != b.TouchCount {
		return a.TouchCount > b.TouchCount
	}
	if a.lastTouchIdx != b.lastTouchIdx {
		return a.lastTouchIdx > b.lastTouchIdx
	}
	return a.seq < b.seq
}

// AutoTouchZone — 0.3 × средний истинный диапазон, не меньше 0.0001 × последнего закрытия
func AutoTouchZone(bars []Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		sum += tr
	}
	atr := sum / float64(len(bars))
	floor := bars[len(bars)-1].Close * autoZoneFloorFactor
	return math.Max(atr*autoZoneATRFactor, floor)
}

// Reclassify выставляет сторону по текущей цене и возвращает смены сторон
func (r *Registry) Reclassify(currentPrice float64) []LevelFlip {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]KeyLevel, len(r.levels))
	copy(next, r.levels)

	var flips []LevelFlip
	for i := range next {
		nowResistance := next[i].Price > currentPrice
		if nowResistance == next[i].IsResistance {
			continue
		}
		next[i].IsResistance = nowResistance
		flips = append(flips, LevelFlip{
			Price:          next[i].Price,
			NowResistance:  nowResistance,
			ReferencePrice: currentPrice,
		})
		logger.LevelFlip(r.cfg.Symbol, next[i].Price, nowResistance, currentPrice)
	}

	r.levels = next
	r.referencePrice = currentPrice
	return flips
}

// StrongestLevel возвращает самый сильный уровень
func (r *Registry) StrongestLevel() (KeyLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.levels) == 0 {
		return KeyLevel{}, ErrNoLevels
	}
	return r.levels[0], nil
}

// NearestLevels ищет ближайшую поддержку не выше цены и сопротивление строго выше
func (r *Registry) NearestLevels(price float64) NearestLevels {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return FindNearest(r.levels, price)
}

// FindNearest — ближайшие уровни по положению относительно цены
func FindNearest(levels []KeyLevel, price float64) NearestLevels {
	var result NearestLevels
	if price <= 0 {
		return result
	}

	for i := range levels {
		l := levels[i]
		diff := l.Price - price
		// уровень на самой цене — поддержка, как в Reclassify
		if diff <= 0 {
			if result.Support == nil || l.Price > result.Support.Price {
				result.Support = &l
				result.DistToSupportPct = -diff / price * 100
			}
		} else {
			if result.Resistance == nil || l.Price < result.Resistance.Price {
				result.Resistance = &l
				result.DistToResistPct = diff / price * 100
			}
		}
	}
	return result
}

// All возвращает копию набора в заданном порядке
func (r *Registry) All(order Order) []KeyLevel {
	r.mu.RLock()
	out := make([]KeyLevel, len(r.levels))
	copy(out, r.levels)
	r.mu.RUnlock()

	if order == OrderDetection {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].seq < out[j].seq
		})
	}
	return out
}

// Count — число уровней
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.levels)
}

// State — состояние реестра
func (r *Registry) State() RegistryState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastPass — итог последнего успешного прохода
func (r *Registry) LastPass() PassResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastPass
}

// Snapshot — согласованный срез для публикации
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	levels := make([]KeyLevel, len(r.levels))
	copy(levels, r.levels)
	return Snapshot{
		PassID:         r.lastPass.PassID,
		Symbol:         r.cfg.Symbol,
		Timeframe:      r.cfg.Timeframe,
		ReferencePrice: r.referencePrice,
		TouchZone:      r.touchZone,
		Levels:         levels,
		CreatedAt:      r.updatedAt,
	}
}
