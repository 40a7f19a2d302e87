// internal/infrastructure/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/core/domain/analysis/level_engine"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "key_levels"

// Failure reasons
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonMalformedBar     = "malformed_bar"
	ReasonTimeout          = "timeout"
	ReasonFeed             = "feed"
	ReasonPublish          = "publish"
)

// Collector — метрики проходов детекции
type Collector struct {
	PassDuration *prometheus.HistogramVec
	PassFailures *prometheus.CounterVec
	Levels       *prometheus.GaugeVec
	LevelFlips   *prometheus.CounterVec
	Warnings     *prometheus.CounterVec
}

// NewCollector создаёт и регистрирует метрики
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of a detection pass",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"symbol", "timeframe", "result"},
		),
		PassFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pass_failures_total",
				Help:      "Failed detection passes by reason",
			},
			[]string{"symbol", "timeframe", "reason"},
		),
		Levels: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "levels",
				Help:      "Key levels currently held by a registry",
			},
			[]string{"symbol", "timeframe"},
		),
		LevelFlips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "level_flips_total",
				Help:      "Support/resistance flips on reclassification",
			},
			[]string{"symbol", "timeframe"},
		),
		Warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "data_quality_warnings_total",
				Help:      "Non-fatal data quality warnings",
			},
			[]string{"symbol", "timeframe"},
		),
	}

	for _, collector := range []prometheus.Collector{c.PassDuration, c.PassFailures, c.Levels, c.LevelFlips, c.Warnings} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObservePass фиксирует длительность и результат прохода
func (c *Collector) ObservePass(symbol, timeframe string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		c.PassFailures.WithLabelValues(symbol, timeframe, FailureReason(err)).Inc()
	}
	c.PassDuration.WithLabelValues(symbol, timeframe, result).Observe(d.Seconds())
}

// ObserveLevels выставляет текущее число уровней
func (c *Collector) ObserveLevels(symbol, timeframe string, count int) {
	c.Levels.WithLabelValues(symbol, timeframe).Set(float64(count))
}

// ObserveFlips добавляет смены сторон
func (c *Collector) ObserveFlips(symbol, timeframe string, flips int) {
	if flips > 0 {
		c.LevelFlips.WithLabelValues(symbol, timeframe).Add(float64(flips))
	}
}

// ObserveWarnings добавляет предупреждения о качестве данных
func (c *Collector) ObserveWarnings(symbol, timeframe string, warnings int) {
	if warnings > 0 {
		c.Warnings.WithLabelValues(symbol, timeframe).Add(float64(warnings))
	}
}

// FailureReason классифицирует ошибку прохода для метки reason
func FailureReason(err error) string {
	switch {
	case errors.Is(err, key_levels.ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, key_levels.ErrMalformedBar):
		return ReasonMalformedBar
	case errors.Is(err, level_engine.ErrPublish):
		return ReasonPublish
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonFeed
	}
}
