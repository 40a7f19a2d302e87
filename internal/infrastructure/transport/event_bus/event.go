// internal/infrastructure/transport/event_bus/event.go
package events

import (
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"time"
)

// EventType тип события
type EventType string

const (
	EventLevelsUpdated EventType = "levels_updated"
	EventLevelFlipped  EventType = "level_flipped"
	EventPassFailed    EventType = "pass_failed"
)

// Event событие шины
type Event struct {
	ID        string
	Type      EventType
	Source    string
	Data      interface{}
	Timestamp time.Time
}

// LevelFlipData — смена стороны уровня
type LevelFlipData struct {
	Symbol    string
	Timeframe string
	Flip      key_levels.LevelFlip
}

// PassFailedData — отклонённый проход
type PassFailedData struct {
	Symbol    string
	Timeframe string
	Error     string
}

// Subscriber подписчик шины
type Subscriber interface {
	HandleEvent(event Event) error
	GetName() string
	GetSubscribedEvents() []EventType
}

// Middleware - промежуточное ПО для обработки событий
type Middleware interface {
	Process(event Event, next HandlerFunc) error
}

// HandlerFunc - функция обработки события
type HandlerFunc func(event Event) error

// Metrics счётчики шины
type Metrics struct {
	EventsPublished  int64
	EventsProcessed  int64
	EventsFailed     int64
	EventsDropped    int64
	ProcessingTime   time.Duration
	SubscribersCount map[EventType]int
}
