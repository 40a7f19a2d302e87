// internal/infrastructure/transport/event_bus/event_bus.go
package events

import (
	"fmt"
	"key-level-engine/pkg/logger"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventBus - шина событий уровней
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	middlewares []Middleware
	eventBuffer chan Event
	metricsMu   sync.RWMutex
	metrics     Metrics
	config      EventBusConfig
	running     bool
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// EventBusConfig - конфигурация EventBus
type EventBusConfig struct {
	BufferSize    int           `json:"buffer_size"`
	WorkerCount   int           `json:"worker_count"`
	MaxRetries    int           `json:"max_retries"`
	RetryDelay    time.Duration `json:"retry_delay"`
	EnableLogging bool          `json:"enable_logging"`
}

// DefaultConfig - конфигурация по умолчанию
var DefaultConfig = EventBusConfig{
	BufferSize:    256,
	WorkerCount:   2,
	MaxRetries:    2,
	RetryDelay:    50 * time.Millisecond,
	EnableLogging: true,
}

// NewEventBus создает новую шину событий
func NewEventBus(config ...EventBusConfig) *EventBus {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		eventBuffer: make(chan Event, cfg.BufferSize),
		metrics: Metrics{
			SubscribersCount: make(map[EventType]int),
		},
		config:   cfg,
		stopChan: make(chan struct{}),
	}
}

// Start запускает EventBus
func (b *EventBus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return
	}
	b.running = true
	// после Stop канал закрыт, для повторного запуска нужен новый
	b.stopChan = make(chan struct{})

	for i := 0; i < b.config.WorkerCount; i++ {
		b.wg.Add(1)
		go b.eventWorker(i, b.stopChan)
	}

	if b.config.EnableLogging {
		logger.Info("🚀 EventBus запущен с %d обработчиками", b.config.WorkerCount)
	}
}

// Stop останавливает EventBus; необработанные события из буфера отбрасываются
func (b *EventBus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopChan)
	b.mu.Unlock()

	b.wg.Wait()

	if b.config.EnableLogging {
		logger.Info("🛑 EventBus остановлен")
	}
}

// Subscribe подписывает обработчик на тип события
func (b *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	found := false
	for _, et := range subscriber.GetSubscribedEvents() {
		if et == eventType {
			found = true
			break
		}
	}
	if !found {
		logger.Warn("⚠️ Подписчик %s не подписан на событие %s", subscriber.GetName(), eventType)
		return
	}

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)

	b.metricsMu.Lock()
	b.metrics.SubscribersCount[eventType] = len(b.subscribers[eventType])
	b.metricsMu.Unlock()

	if b.config.EnableLogging {
		logger.Debug("✅ %s подписался на %s", subscriber.GetName(), eventType)
	}
}

// SubscribeAll подписывает обработчик на все его типы событий
func (b *EventBus) SubscribeAll(subscriber Subscriber) {
	for _, et := range subscriber.GetSubscribedEvents() {
		b.Subscribe(et, subscriber)
	}
}

// Unsubscribe отписывает обработчик от типа события
func (b *EventBus) Unsubscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[eventType]
	for i, sub := range subscribers {
		if sub != subscriber {
			continue
		}
		rest := make([]Subscriber, 0, len(subscribers)-1)
		rest = append(rest, subscribers[:i]...)
		b.subscribers[eventType] = append(rest, subscribers[i+1:]...)

		b.metricsMu.Lock()
		b.metrics.SubscribersCount[eventType] = len(b.subscribers[eventType])
		b.metricsMu.Unlock()
		return
	}
}

// Publish ставит событие в буфер
func (b *EventBus) Publish(event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.running {
		return fmt.Errorf("event bus is not running")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventBuffer <- event:
		b.metricsMu.Lock()
		b.metrics.EventsPublished++
		b.metricsMu.Unlock()
		logger.Debug("📤 Опубликовано событие: %s от %s", event.Type, event.Source)
		return nil
	default:
		b.metricsMu.Lock()
		b.metrics.EventsDropped++
		b.metricsMu.Unlock()
		if b.config.EnableLogging {
			logger.Warn("⚠️ Буфер событий полон, событие отброшено: %s", event.Type)
		}
		return fmt.Errorf("event buffer is full")
	}
}

// PublishSync обрабатывает событие в текущей горутине
func (b *EventBus) PublishSync(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return b.processEvent(event)
}

// AddMiddleware добавляет middleware
func (b *EventBus) AddMiddleware(middleware Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.middlewares = append(b.middlewares, middleware)
}

func (b *EventBus) eventWorker(id int, stop <-chan struct{}) {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventBuffer:
			_ = b.processEvent(event)
		case <-stop:
			logger.Debug("🔍 [EventWorker %d] Остановлен", id)
			return
		}
	}
}

func (b *EventBus) processEvent(event Event) error {
	startTime := time.Now()
	defer func() {
		b.metricsMu.Lock()
		b.metrics.ProcessingTime += time.Since(startTime)
		b.metrics.EventsProcessed++
		b.metricsMu.Unlock()
	}()

	b.mu.RLock()
	subscribers := append([]Subscriber(nil), b.subscribers[event.Type]...)
	middlewares := append([]Middleware(nil), b.middlewares...)
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		logger.Debug("🔍 Нет подписчиков для события: %s", event.Type)
		return nil
	}

	chain := b.createHandlerChain(subscribers)
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw := middlewares[i]
		next := chain
		chain = func(event Event) error {
			return mw.Process(event, next)
		}
	}
	return chain(event)
}

func (b *EventBus) createHandlerChain(subscribers []Subscriber) HandlerFunc {
	return func(event Event) error {
		var lastError error
		for _, subscriber := range subscribers {
			if err := b.handleEventWithRetry(event, subscriber); err != nil {
				lastError = err
				logger.Warn("❌ Ошибка обработки события %s подписчиком %s: %v",
					event.Type, subscriber.GetName(), err)
			}
		}
		return lastError
	}
}

// handleEventWithRetry вызывает подписчика до MaxRetries+1 раз
func (b *EventBus) handleEventWithRetry(event Event, subscriber Subscriber) error {
	var err error
	for attempt := 0; attempt <= b.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(b.config.RetryDelay)
		}
		if err = safeHandle(event, subscriber); err == nil {
			return nil
		}
	}

	b.metricsMu.Lock()
	b.metrics.EventsFailed++
	b.metricsMu.Unlock()
	return err
}

// safeHandle переводит панику подписчика в ошибку
func safeHandle(event Event, subscriber Subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("⚠️ Паника в подписчике %s: %v\n%s", subscriber.GetName(), r, debug.Stack())
			err = fmt.Errorf("panic in %s: %v", subscriber.GetName(), r)
		}
	}()
	return subscriber.HandleEvent(event)
}

// GetMetrics возвращает копию метрик
func (b *EventBus) GetMetrics() Metrics {
	b.metricsMu.RLock()
	defer b.metricsMu.RUnlock()

	counts := make(map[EventType]int, len(b.metrics.SubscribersCount))
	for k, v := range b.metrics.SubscribersCount {
		counts[k] = v
	}
	return Metrics{
		EventsPublished:  b.metrics.EventsPublished,
		EventsProcessed:  b.metrics.EventsProcessed,
		EventsFailed:     b.metrics.EventsFailed,
		EventsDropped:    b.metrics.EventsDropped,
		ProcessingTime:   b.metrics.ProcessingTime,
		SubscribersCount: counts,
	}
}

// GetSubscriberCount возвращает количество подписчиков
func (b *EventBus) GetSubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[eventType])
}

// IsRunning возвращает true если EventBus запущен
func (b *EventBus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Name возвращает имя сервиса
func (b *EventBus) Name() string {
	return "EventBus"
}
