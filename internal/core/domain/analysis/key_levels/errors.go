// internal/core/domain/analysis/key_levels/errors.go
package key_levels

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrMalformedBar     = errors.New("malformed bar")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrNoLevels         = errors.New("no key levels")
)

// InputError — нарушение входных предусловий, проход прерывается
type InputError struct {
	Kind    error
	Index   int // -1 если ошибка не относится к конкретному бару
	Message string
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("key_levels: %v at bar %d: %s", e.Kind, e.Index, e.Message)
	}
	return fmt.Sprintf("key_levels: %v: %s", e.Kind, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Kind
}

func newInputError(kind error, index int, format string, args ...interface{}) *InputError {
	return &InputError{Kind: kind, Index: index, Message: fmt.Sprintf(format, args...)}
}

// ConfigError — некорректные параметры, отклоняются при создании реестра
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("key_levels: %v: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// DataQualityWarning — некритичная проблема данных, проход продолжается
type DataQualityWarning struct {
	Index   int
	Message string
}

func (w DataQualityWarning) Error() string {
	return fmt.Sprintf("key_levels: data quality at bar %d: %s", w.Index, w.Message)
}

// ValidateBars проверяет предусловия ряда баров
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if !validPrice(b.Open) || !validPrice(b.High) || !validPrice(b.Low) || !validPrice(b.Close) {
			return newInputError(ErrMalformedBar, i, "non-positive or non-finite price")
		}
		if b.High < b.Low {
			return newInputError(ErrMalformedBar, i, "high %.5f < low %.5f", b.High, b.Low)
		}
		if !(b.Volume >= 0) || math.IsInf(b.Volume, 0) {
			return newInputError(ErrMalformedBar, i, "negative or non-finite volume")
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return newInputError(ErrMalformedBar, i, "time is not increasing")
		}
	}
	return nil
}

// validPrice: NaN не проходит сравнение > 0
func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
