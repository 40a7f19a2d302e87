// internal/infrastructure/transport/event_bus/subscribers.go
package events

import (
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/pkg/logger"
)

// BaseSubscriber - базовая реализация подписчика
type BaseSubscriber struct {
	name             string
	subscribedEvents []EventType
	handler          func(Event) error
}

// NewBaseSubscriber создает нового подписчика
func NewBaseSubscriber(name string, events []EventType, handler func(Event) error) *BaseSubscriber {
	return &BaseSubscriber{
		name:             name,
		subscribedEvents: events,
		handler:          handler,
	}
}

// HandleEvent обрабатывает событие
func (s *BaseSubscriber) HandleEvent(event Event) error {
	return s.handler(event)
}

// GetName возвращает имя подписчика
func (s *BaseSubscriber) GetName() string {
	return s.name
}

// GetSubscribedEvents возвращает типы событий
func (s *BaseSubscriber) GetSubscribedEvents() []EventType {
	return s.subscribedEvents
}

// NewLevelLogSubscriber — пишет в лог итог прохода и отказы
func NewLevelLogSubscriber() *BaseSubscriber {
	return NewBaseSubscriber(
		"level_logger",
		[]EventType{EventLevelsUpdated, EventPassFailed},
		func(event Event) error {
			switch data := event.Data.(type) {
			case key_levels.Snapshot:
				logger.Info("📐 %s/%s: %d уровней относительно %.5f",
					data.Symbol, data.Timeframe, len(data.Levels), data.ReferencePrice)
				if near := key_levels.FindNearest(data.Levels, data.ReferencePrice); near.Support != nil || near.Resistance != nil {
					logNearest(near)
				}
			case PassFailedData:
				logger.Warn("❌ %s/%s: проход отклонён: %s", data.Symbol, data.Timeframe, data.Error)
			}
			return nil
		},
	)
}

func logNearest(near key_levels.NearestLevels) {
	if near.Support != nil {
		logger.Info("   ↓ поддержка %.5f (%.2f%%, сила %.2f)",
			near.Support.Price, near.DistToSupportPct, near.Support.Strength)
	}
	if near.Resistance != nil {
		logger.Info("   ↑ сопротивление %.5f (%.2f%%, сила %.2f)",
			near.Resistance.Price, near.DistToResistPct, near.Resistance.Strength)
	}
}
