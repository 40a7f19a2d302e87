// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"key-level-engine/internal/adapters/market"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/core/domain/analysis/level_engine"
	"key-level-engine/internal/infrastructure/api/breaker"
	redis_service "key-level-engine/internal/infrastructure/cache/redis"
	"key-level-engine/internal/infrastructure/config"
	"key-level-engine/internal/infrastructure/metrics"
	"key-level-engine/internal/infrastructure/persistence/postgres/database"
	market_data_repo "key-level-engine/internal/infrastructure/persistence/postgres/repository/market_data"
	"key-level-engine/internal/infrastructure/persistence/redis_storage/bar_storage"
	"key-level-engine/internal/infrastructure/persistence/redis_storage/level_storage"
	events "key-level-engine/internal/infrastructure/transport/event_bus"
	"key-level-engine/pkg/logger"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Application — основное приложение: сервисы, фид, движок, метрики
type Application struct {
	config *config.Config

	database *database.DatabaseService
	redis    *redis_service.RedisService

	registry  *prometheus.Registry
	collector *metrics.Collector
	feed      *market.BreakerFeed
	levels    *level_storage.LevelStorage
	engine    *level_engine.Engine
	eventBus  *events.EventBus

	metricsServer *http.Server

	mu      sync.Mutex
	started bool
}

// NewApplication создает приложение; подключения открываются в Prepare
func NewApplication(cfg *config.Config) *Application {
	app := &Application{
		config:   cfg,
		database: database.NewDatabaseService(cfg),
		registry: prometheus.NewRegistry(),
	}
	if cfg.Redis.Enabled {
		app.redis = redis_service.NewRedisService(cfg)
	}
	return app
}

// newApplicationWithServices собирает приложение над готовыми сервисами
func newApplicationWithServices(cfg *config.Config, db *database.DatabaseService, rs *redis_service.RedisService) *Application {
	return &Application{
		config:   cfg,
		database: db,
		redis:    rs,
		registry: prometheus.NewRegistry(),
	}
}

// Prepare подключает хранилища и собирает движок
func (app *Application) Prepare(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.engine != nil {
		return nil
	}

	if err := app.startDatabase(ctx); err != nil {
		return err
	}

	if app.redis != nil {
		// Redis опционален: без него работаем без кэша и без публикации
		if !app.redis.IsRunning() {
			if err := app.redis.Start(ctx); err != nil {
				logger.Warn("⚠️ Redis недоступен, кэш и публикация уровней отключены: %v", err)
				app.redis = nil
			}
		} else if !app.redis.HealthCheck(ctx) {
			logger.Warn("⚠️ Redis не прошёл проверку готовности, кэш и публикация уровней отключены")
			app.redis = nil
		}
	}

	return app.build()
}

func (app *Application) startDatabase(ctx context.Context) error {
	if !app.config.Database.Enabled {
		return fmt.Errorf("bootstrap: PostgreSQL отключен, источник баров недоступен")
	}
	if app.database.State() == database.StateRunning {
		return nil
	}
	if err := app.database.Start(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}

// IngestBars проверяет ряд и дописывает его в market_data
func (app *Application) IngestBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) (int64, error) {
	if err := key_levels.ValidateBars(bars); err != nil {
		return 0, err
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.startDatabase(ctx); err != nil {
		return 0, err
	}
	return market_data_repo.NewMarketDataRepository(app.database.GetDB()).SaveBars(ctx, symbol, timeframe, bars)
}

func (app *Application) build() error {
	source := market_data_repo.NewMarketDataRepository(app.database.GetDB())

	var cache market.BarCache
	if app.redis != nil {
		if app.config.Redis.BarCacheEnabled {
			bars, err := bar_storage.NewBarStorage(app.redis, app.config.Redis.BarCacheMaxHistory)
			if err != nil {
				return fmt.Errorf("bootstrap: кэш баров: %w", err)
			}
			cache = bars
		}
		levels, err := level_storage.NewLevelStorage(app.redis)
		if err != nil {
			return fmt.Errorf("bootstrap: хранилище уровней: %w", err)
		}
		app.levels = levels
	}

	cached, err := market.NewCachedFeed(source, cache)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	app.feed = market.NewBreakerFeed(cached, breaker.Settings{
		Name:        "market-data",
		MaxFailures: app.config.Engine.BreakerMaxFailures,
		OpenTimeout: app.config.Engine.BreakerOpenTimeout,
	})

	collector, err := metrics.NewCollector(app.registry)
	if err != nil {
		return fmt.Errorf("bootstrap: метрики: %w", err)
	}
	app.collector = collector

	var publisher level_engine.LevelPublisher
	if app.levels != nil {
		publisher = app.levels
	}

	app.eventBus = events.NewEventBus()
	app.eventBus.SubscribeAll(events.NewLevelLogSubscriber())

	engine, err := level_engine.NewEngine(app.feed, publisher, collector, app.config.DetectorConfigs(), level_engine.Options{
		Interval:    app.config.Engine.Interval,
		PassTimeout: app.config.Engine.PassTimeout,
		Events:      events.NewLevelEventPublisher(app.eventBus),
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	app.engine = engine
	app.eventBus.Start()

	logger.Info("🏗️ Приложение собрано: %d пар, кэш баров: %v, публикация: %v",
		len(engine.Registries()), cache != nil, publisher != nil)
	return nil
}

// Run запускает метрики, /healthz и периодический пересчёт
func (app *Application) Run(ctx context.Context) error {
	if err := app.Prepare(ctx); err != nil {
		return err
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.started {
		return fmt.Errorf("bootstrap: приложение уже запущено")
	}

	if addr := app.config.Engine.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
		mux.Handle("/healthz", app.healthHandler())
		app.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := app.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("❌ Сервер метрик остановлен: %v", err)
			}
		}()
		logger.Info("📊 Метрики доступны на %s/metrics, проверка готовности на %s/healthz", addr, addr)
	}

	if err := app.engine.Start(ctx); err != nil {
		return err
	}
	app.started = true
	return nil
}

// RunOnce выполняет один проход по всем парам
func (app *Application) RunOnce(ctx context.Context) error {
	if err := app.Prepare(ctx); err != nil {
		return err
	}
	return app.engine.RunOnce(ctx)
}

// Engine движок уровней (nil до Prepare)
func (app *Application) Engine() *level_engine.Engine {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.engine
}

// Stop останавливает движок и закрывает подключения
func (app *Application) Stop() {
	// сервер гасится без блокировки: обработчик /healthz сам берёт app.mu
	app.mu.Lock()
	server := app.metricsServer
	app.metricsServer = nil
	app.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("⚠️ Ошибка остановки сервера метрик: %v", err)
		}
		cancel()
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.engine != nil {
		app.engine.Stop()
	}
	if app.eventBus != nil {
		app.eventBus.Stop()
	}
	if app.redis != nil && app.redis.IsRunning() {
		if err := app.redis.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки Redis: %v", err)
		}
	}
	if app.database.State() == database.StateRunning {
		if err := app.database.Stop(); err != nil {
			logger.Warn("⚠️ Ошибка остановки PostgreSQL: %v", err)
		}
	}
	app.started = false
	logger.Info("🛑 Приложение остановлено")
}
