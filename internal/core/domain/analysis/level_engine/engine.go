// internal/core/domain/analysis/level_engine/engine.go
package level_engine

import (
	"context"
	"errors"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/pkg/logger"
	"sync"
	"time"
)

// ErrPublish — снимок рассчитан, но не опубликован
var ErrPublish = errors.New("publish failed")

const (
	defaultInterval    = 5 * time.Minute
	defaultPassTimeout = 30 * time.Second
)

// BarFeed — источник истории баров
type BarFeed interface {
	FetchBars(ctx context.Context, symbol, timeframe string, count int) ([]key_levels.Bar, error)
}

// LevelPublisher — получатель актуального набора уровней
type LevelPublisher interface {
	SaveLevels(ctx context.Context, snapshot key_levels.Snapshot) error
}

// PassObserver — метрики проходов
type PassObserver interface {
	ObservePass(symbol, timeframe string, d time.Duration, err error)
	ObserveLevels(symbol, timeframe string, count int)
	ObserveFlips(symbol, timeframe string, flips int)
	ObserveWarnings(symbol, timeframe string, warnings int)
}

// LevelEvents — рассылка результатов проходов подписчикам
type LevelEvents interface {
	LevelsUpdated(snapshot key_levels.Snapshot)
	LevelsFlipped(symbol, timeframe string, flips []key_levels.LevelFlip)
	PassFailed(symbol, timeframe string, err error)
}

type nopObserver struct{}

func (nopObserver) ObservePass(string, string, time.Duration, error) {}
func (nopObserver) ObserveLevels(string, string, int)                {}
func (nopObserver) ObserveFlips(string, string, int)                 {}
func (nopObserver) ObserveWarnings(string, string, int)              {}

// Options — параметры цикла
type Options struct {
	Interval    time.Duration
	PassTimeout time.Duration
	Events      LevelEvents // может быть nil
}

// Engine — движок ключевых уровней.
// Держит независимый реестр на каждую пару symbol/timeframe и пересчитывает их по таймеру.
type Engine struct {
	feed      BarFeed
	publisher LevelPublisher
	observer  PassObserver
	events    LevelEvents

	registries []*key_levels.Registry
	index      map[string]*key_levels.Registry

	interval    time.Duration
	passTimeout time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewEngine создаёт движок. publisher и observer могут быть nil.
func NewEngine(feed BarFeed, publisher LevelPublisher, observer PassObserver, configs []key_levels.Config, opts Options) (*Engine, error) {
	if feed == nil {
		return nil, fmt.Errorf("level_engine: источник баров не задан")
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("level_engine: не задано ни одной пары symbol/timeframe")
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.PassTimeout <= 0 {
		opts.PassTimeout = defaultPassTimeout
	}

	e := &Engine{
		feed:        feed,
		publisher:   publisher,
		observer:    observer,
		events:      opts.Events,
		index:       make(map[string]*key_levels.Registry, len(configs)),
		interval:    opts.Interval,
		passTimeout: opts.PassTimeout,
	}

	for _, cfg := range configs {
		key := registryKey(cfg.Symbol, cfg.Timeframe)
		if _, exists := e.index[key]; exists {
			return nil, fmt.Errorf("level_engine: дублирующаяся пара %s", key)
		}
		reg, err := key_levels.NewRegistry(cfg)
		if err != nil {
			return nil, fmt.Errorf("level_engine: %s: %w", key, err)
		}
		e.index[key] = reg
		e.registries = append(e.registries, reg)
	}
	return e, nil
}

func registryKey(symbol, timeframe string) string {
	return symbol + ":" + timeframe
}

// Registry возвращает реестр пары
func (e *Engine) Registry(symbol, timeframe string) (*key_levels.Registry, bool) {
	reg, ok := e.index[registryKey(symbol, timeframe)]
	return reg, ok
}

// Registries — все реестры в порядке конфигурации
func (e *Engine) Registries() []*key_levels.Registry {
	out := make([]*key_levels.Registry, len(e.registries))
	copy(out, e.registries)
	return out
}

// Start запускает периодический пересчёт; первый проход выполняется сразу
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("level_engine: движок уже запущен")
	}
	e.running = true
	e.stopCh = make(chan struct{})

	e.wg.Add(1)
	go e.loop(ctx, e.stopCh)

	logger.Info("✅ LevelEngine запущен: %d пар, интервал %v", len(e.registries), e.interval)
	return nil
}

func (e *Engine) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	_ = e.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			_ = e.RunOnce(ctx)
		}
	}
}

// Stop останавливает цикл и ждёт текущий проход
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()
	logger.Info("🛑 LevelEngine остановлен")
}

// RunOnce выполняет по одному проходу для каждой пары
func (e *Engine) RunOnce(ctx context.Context) error {
	var errs []error
	for _, reg := range e.registries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := e.recalculate(ctx, reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recalculate: бары → детекция → переклассификация по последнему закрытию → публикация
func (e *Engine) recalculate(ctx context.Context, reg *key_levels.Registry) (err error) {
	cfg := reg.Config()
	started := time.Now()
	defer func() {
		e.observer.ObservePass(cfg.Symbol, cfg.Timeframe, time.Since(started), err)
		if err != nil && e.events != nil {
			e.events.PassFailed(cfg.Symbol, cfg.Timeframe, err)
		}
	}()

	passCtx, cancel := context.WithTimeout(ctx, e.passTimeout)
	defer cancel()

	bars, err := e.feed.FetchBars(passCtx, cfg.Symbol, cfg.Timeframe, cfg.RequiredBars())
	if err != nil {
		logger.Warn("⚠️ LevelEngine: ошибка получения баров %s/%s: %v", cfg.Symbol, cfg.Timeframe, err)
		return fmt.Errorf("level_engine: fetch %s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
	}
	if err := passCtx.Err(); err != nil {
		return fmt.Errorf("level_engine: %s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
	}

	result, err := reg.Detect(bars)
	if err != nil {
		logger.Warn("⚠️ LevelEngine: проход %s/%s отклонён: %v", cfg.Symbol, cfg.Timeframe, err)
		return fmt.Errorf("level_engine: detect %s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
	}

	flips := reg.Reclassify(bars[len(bars)-1].Close)
	e.observer.ObserveLevels(cfg.Symbol, cfg.Timeframe, result.Retained)
	e.observer.ObserveFlips(cfg.Symbol, cfg.Timeframe, len(flips))
	e.observer.ObserveWarnings(cfg.Symbol, cfg.Timeframe, len(result.Warnings))
	if e.events != nil && len(flips) > 0 {
		e.events.LevelsFlipped(cfg.Symbol, cfg.Timeframe, flips)
	}

	snapshot := reg.Snapshot()
	if e.publisher != nil {
		if err := e.publisher.SaveLevels(passCtx, snapshot); err != nil {
			logger.Warn("⚠️ LevelEngine: ошибка публикации %s/%s: %v", cfg.Symbol, cfg.Timeframe, err)
			return fmt.Errorf("level_engine: %s/%s: %w: %v", cfg.Symbol, cfg.Timeframe, ErrPublish, err)
		}
	}
	if e.events != nil {
		e.events.LevelsUpdated(snapshot)
	}

	logger.Debug("📐 LevelEngine: %s/%s → %d уровней, %d смен сторон",
		cfg.Symbol, cfg.Timeframe, result.Retained, len(flips))
	return nil
}
