// internal/core/domain/analysis/key_levels/types.go
package key_levels

import "time"

// Bar — OHLCV бар. Ряд упорядочен от старых к новым.
type Bar struct {
	Time   time.Time `json:"time" db:"ts"`
	Open   float64   `json:"open" db:"open"`
	High   float64   `json:"high" db:"high"`
	Low    float64   `json:"low" db:"low"`
	Close  float64   `json:"close" db:"close"`
	Volume float64   `json:"volume" db:"volume"`
}

// LevelSide — сторона уровня
type LevelSide string

const (
	SideSupport    LevelSide = "support"
	SideResistance LevelSide = "resistance"
)

// KeyLevel — ключевой уровень поддержки или сопротивления.
// Идентичность уровня плавающая: каждый проход строит набор заново.
type KeyLevel struct {
	Price            float64   `json:"price"`
	IsResistance     bool      `json:"is_resistance"`
	TouchCount       int       `json:"touch_count"`
	Strength         float64   `json:"strength"` // 0.40-0.99
	FirstTouchTime   time.Time `json:"first_touch_time"`
	LastTouchTime    time.Time `json:"last_touch_time"`
	VolumeConfirmed  bool      `json:"volume_confirmed"`
	VolumeRatio      float64   `json:"volume_ratio"`
	SlopeConsistency float64   `json:"slope_consistency"` // 0-1
	BounceQuality    float64   `json:"bounce_quality"`    // 0-1

	seq          int // порядок обнаружения внутри прохода
	lastTouchIdx int
}

// Side возвращает текущую сторону уровня
func (l KeyLevel) Side() LevelSide {
	if l.IsResistance {
		return SideResistance
	}
	return SideSupport
}

// TouchQuality — статистика касаний уровня за один проход
type TouchQuality struct {
	TouchCount         int     `json:"touch_count"`
	AvgBounceStrength  float64 `json:"avg_bounce_strength"`
	MaxBounceSize      float64 `json:"max_bounce_size"`
	QuickestBounce     int     `json:"quickest_bounce"` // в барах
	SlowestBounce      int     `json:"slowest_bounce"`  // в барах
	AvgBounceBars      float64 `json:"avg_bounce_bars"`
	BounceConsistency  float64 `json:"bounce_consistency"` // avg / max
	TouchSpacing       float64 `json:"touch_spacing"`      // средний интервал между касаниями
	ConsecutiveTouches int     `json:"consecutive_touches"`
	CleanBounces       bool    `json:"clean_bounces"`
	TouchIndices       []int   `json:"-"`
}

// Pivot — кандидат свинга
type Pivot struct {
	Index            int
	Price            float64
	Time             time.Time
	IsHigh           bool
	SlopeConsistency float64
}

// NearestLevels — ближайшие уровни к текущей цене
type NearestLevels struct {
	Support          *KeyLevel
	Resistance       *KeyLevel
	DistToSupportPct float64 // % расстояние до поддержки (положительное)
	DistToResistPct  float64 // % расстояние до сопротивления (положительное)
}

// LevelFlip — смена стороны уровня при переклассификации
type LevelFlip struct {
	Price          float64
	NowResistance  bool
	ReferencePrice float64
}

// PassResult — итог одного прохода детекции
type PassResult struct {
	PassID     string
	Candidates int
	Retained   int
	TouchZone  float64
	Warnings   []DataQualityWarning
	Duration   time.Duration
}

// Snapshot — согласованный срез реестра
type Snapshot struct {
	PassID         string     `json:"pass_id"`
	Symbol         string     `json:"symbol"`
	Timeframe      string     `json:"timeframe"`
	ReferencePrice float64    `json:"reference_price"`
	TouchZone      float64    `json:"touch_zone"`
	Levels         []KeyLevel `json:"levels"`
	CreatedAt      time.Time  `json:"created_at"`
}
