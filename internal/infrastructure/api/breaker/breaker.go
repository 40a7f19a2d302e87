// internal/infrastructure/api/breaker/breaker.go
package breaker

import (
	"context"
	"errors"
	"key-level-engine/pkg/logger"
	"time"

	cb "github.com/sony/gobreaker"
)

const (
	DefaultMaxFailures uint32 = 3
	DefaultOpenTimeout        = 30 * time.Second
)

// ErrOpen возвращается, пока предохранитель разомкнут
var ErrOpen = cb.ErrOpenState

// Settings параметры предохранителя
type Settings struct {
	Name        string
	MaxFailures uint32        // подряд идущих ошибок до размыкания
	OpenTimeout time.Duration // сколько держим разомкнутым до пробного запроса
}

// Breaker обертка над gobreaker для вызовов источника данных
type Breaker struct {
	cb *cb.CircuitBreaker
}

// New создает предохранитель
func New(s Settings) *Breaker {
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultMaxFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = DefaultOpenTimeout
	}

	st := cb.Settings{Name: s.Name}
	st.Timeout = s.OpenTimeout
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= s.MaxFailures
	}
	// Отмена контекста вызывающим не говорит о неисправности источника
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	st.OnStateChange = func(name string, from, to cb.State) {
		logger.Warn("🔌 Предохранитель %s: %s → %s", name, from, to)
	}

	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute выполняет fn через предохранитель
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return b.cb.Execute(fn)
}

// State текущее состояние: closed, half-open, open
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Name имя предохранителя
func (b *Breaker) Name() string {
	return b.cb.Name()
}
