// internal/infrastructure/transport/event_bus/publisher.go
package events

import (
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/pkg/logger"
)

const levelEngineSource = "level_engine"

// LevelEventPublisher переводит результаты проходов в события шины
type LevelEventPublisher struct {
	bus *EventBus
}

// NewLevelEventPublisher создает издателя событий уровней
func NewLevelEventPublisher(bus *EventBus) *LevelEventPublisher {
	return &LevelEventPublisher{bus: bus}
}

// LevelsUpdated — опубликован новый набор
func (p *LevelEventPublisher) LevelsUpdated(snapshot key_levels.Snapshot) {
	p.publish(Event{Type: EventLevelsUpdated, Source: levelEngineSource, Data: snapshot})
}

// LevelsFlipped — по событию на каждую смену стороны
func (p *LevelEventPublisher) LevelsFlipped(symbol, timeframe string, flips []key_levels.LevelFlip) {
	for _, flip := range flips {
		p.publish(Event{
			Type:   EventLevelFlipped,
			Source: levelEngineSource,
			Data:   LevelFlipData{Symbol: symbol, Timeframe: timeframe, Flip: flip},
		})
	}
}

// PassFailed — проход отклонён, прежний набор сохранён
func (p *LevelEventPublisher) PassFailed(symbol, timeframe string, err error) {
	p.publish(Event{
		Type:   EventPassFailed,
		Source: levelEngineSource,
		Data:   PassFailedData{Symbol: symbol, Timeframe: timeframe, Error: err.Error()},
	})
}

func (p *LevelEventPublisher) publish(event Event) {
	if err := p.bus.Publish(event); err != nil {
		logger.Warn("⚠️ Событие %s не опубликовано: %v", event.Type, err)
	}
}
