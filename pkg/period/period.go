// pkg/period/period.go
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StringToMinutes конвертирует строковый таймфрейм в минуты
func StringToMinutes(period string) (int, error) {
	period = strings.ToLower(strings.TrimSpace(period))

	switch period {
	case Period1m:
		return Minutes1, nil
	case Period5m:
		return Minutes5, nil
	case Period15m:
		return Minutes15, nil
	case Period30m:
		return Minutes30, nil
	case Period1h:
		return Minutes60, nil
	case Period4h:
		return Minutes240, nil
	case Period1d:
		return Minutes1440, nil
	case Period1w:
		return Minutes10080, nil
	}

	// Пользовательские значения вида "2h" или "45m"
	for suffix, mult := range map[string]int{"m": 1, "h": 60, "d": 1440} {
		if !strings.HasSuffix(period, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(period, suffix))
		if err == nil && n > 0 {
			return n * mult, nil
		}
	}
	return 0, fmt.Errorf("неизвестный формат таймфрейма: %q", period)
}

// MinutesToString конвертирует минуты в строковый таймфрейм
func MinutesToString(minutes int) string {
	switch minutes {
	case Minutes1:
		return Period1m
	case Minutes5:
		return Period5m
	case Minutes15:
		return Period15m
	case Minutes30:
		return Period30m
	case Minutes60:
		return Period1h
	case Minutes240:
		return Period4h
	case Minutes1440:
		return Period1d
	case Minutes10080:
		return Period1w
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// PeriodToDuration конвертирует таймфрейм в time.Duration (дефолт при ошибке)
func PeriodToDuration(period string) time.Duration {
	minutes, err := StringToMinutes(period)
	if err != nil {
		return DefaultDuration
	}
	return time.Duration(minutes) * time.Minute
}

// StringToDuration конвертирует таймфрейм в time.Duration с проверкой ошибки
func StringToDuration(period string) (time.Duration, error) {
	minutes, err := StringToMinutes(period)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes) * time.Minute, nil
}

// IsValidPeriod проверяет, является ли таймфрейм валидным
func IsValidPeriod(period string) bool {
	_, err := StringToMinutes(period)
	return err == nil
}

// IsStandardPeriod проверяет, является ли таймфрейм стандартным
func IsStandardPeriod(period string) bool {
	for _, std := range AllPeriods {
		if period == std {
			return true
		}
	}
	return false
}

// ParseList разбирает список таймфреймов через запятую, пропуская невалидные
func ParseList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || !IsValidPeriod(part) {
			continue
		}
		result = append(result, part)
	}
	return result
}

// FormatPeriodForDisplay форматирует таймфрейм для вывода в лог
func FormatPeriodForDisplay(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d мин", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%d ч", minutes/60)
	case minutes < 10080:
		return fmt.Sprintf("%d дн", minutes/1440)
	default:
		return fmt.Sprintf("%d нед", minutes/10080)
	}
}
