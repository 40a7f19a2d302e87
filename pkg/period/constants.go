// pkg/period/constants.go
package period

import "time"

// Поддерживаемые таймфреймы в минутах
const (
	Minutes1     = 1
	Minutes5     = 5
	Minutes15    = 15
	Minutes30    = 30
	Minutes60    = 60    // 1 час
	Minutes240   = 240   // 4 часа
	Minutes1440  = 1440  // 1 день
	Minutes10080 = 10080 // 1 неделя
)

// Строковые представления таймфреймов
const (
	Period1m  = "1m"
	Period5m  = "5m"
	Period15m = "15m"
	Period30m = "30m"
	Period1h  = "1h"
	Period4h  = "4h"
	Period1d  = "1d"
	Period1w  = "1w"
)

// AllPeriods - все стандартные таймфреймы, от младшего к старшему
var AllPeriods = []string{
	Period1m,
	Period5m,
	Period15m,
	Period30m,
	Period1h,
	Period4h,
	Period1d,
	Period1w,
}

// AllPeriodsMinutes - те же таймфреймы в минутах
var AllPeriodsMinutes = []int{
	Minutes1,
	Minutes5,
	Minutes15,
	Minutes30,
	Minutes60,
	Minutes240,
	Minutes1440,
	Minutes10080,
}

// Дефолтные значения
const (
	DefaultPeriod   = Period1h
	DefaultMinutes  = Minutes60
	DefaultDuration = time.Hour
)
