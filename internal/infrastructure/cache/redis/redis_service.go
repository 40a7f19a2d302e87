// internal/infrastructure/cache/redis/redis_service.go
package redis

import (
	"context"
	"fmt"
	"time"

	"key-level-engine/internal/infrastructure/config"
	"key-level-engine/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	connectTimeout = 5 * time.Second
	pingTimeout    = 3 * time.Second
)

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped ServiceState = "stopped"
	StateRunning ServiceState = "running"
	StateError   ServiceState = "error"
)

// PoolStats — состояние подключения и пула для /healthz
type PoolStats struct {
	State      ServiceState `json:"state"`
	Connected  bool         `json:"connected"`
	Hits       uint32       `json:"hits"`
	Misses     uint32       `json:"misses"`
	Timeouts   uint32       `json:"timeouts"`
	TotalConns uint32       `json:"total_conns"`
	IdleConns  uint32       `json:"idle_conns"`
	StaleConns uint32       `json:"stale_conns"`
}

// RedisService держит подключение к Redis для кэша баров и снапшотов уровней
type RedisService struct {
	config *config.Config
	client *redis.Client
	state  ServiceState
}

// NewRedisService создает сервис; подключение открывается в Start
func NewRedisService(cfg *config.Config) *RedisService {
	return &RedisService{config: cfg, state: StateStopped}
}

// NewRedisServiceWithClient оборачивает уже подключенный клиент
func NewRedisServiceWithClient(client *redis.Client) *RedisService {
	return &RedisService{config: &config.Config{}, client: client, state: StateRunning}
}

func (rs *RedisService) options() *redis.Options {
	rc := rs.config.Redis
	return &redis.Options{
		Addr:            rs.config.GetRedisAddress(),
		Password:        rc.Password,
		DB:              rc.DB,
		PoolSize:        rc.PoolSize,
		MinIdleConns:    rc.MinIdleConns,
		DialTimeout:     rc.DialTimeout,
		ReadTimeout:     rc.ReadTimeout,
		WriteTimeout:    rc.WriteTimeout,
		PoolTimeout:     rc.PoolTimeout,
		MaxRetries:      rc.MaxRetries,
		MinRetryBackoff: rc.MinRetryBackoff,
		MaxRetryBackoff: rc.MaxRetryBackoff,
	}
}

// Start подключается и проверяет соединение
func (rs *RedisService) Start(ctx context.Context) error {
	if rs.state == StateRunning {
		return fmt.Errorf("redis: сервис уже запущен")
	}

	opts := rs.options()
	logger.Info("📡 Подключение к Redis %s (DB %d)", opts.Addr, opts.DB)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		rs.state = StateError
		logger.Error("❌ Redis %s недоступен: %v", opts.Addr, err)
		return fmt.Errorf("redis: подключение к %s: %w", opts.Addr, err)
	}

	rs.client = client
	rs.state = StateRunning
	logger.Info("✅ Redis подключен (пул %d, минимум свободных %d)", opts.PoolSize, opts.MinIdleConns)
	return nil
}

// Stop закрывает клиент
func (rs *RedisService) Stop() error {
	if rs.state != StateRunning {
		return fmt.Errorf("redis: сервис не запущен")
	}

	client := rs.client
	rs.client = nil
	if client != nil {
		if err := client.Close(); err != nil {
			rs.state = StateError
			return fmt.Errorf("redis: закрытие клиента: %w", err)
		}
	}

	rs.state = StateStopped
	logger.Info("🛑 Redis отключен")
	return nil
}

// GetClient возвращает клиент Redis (nil до Start)
func (rs *RedisService) GetClient() *redis.Client {
	return rs.client
}

// State возвращает состояние сервиса
func (rs *RedisService) State() ServiceState {
	return rs.state
}

// HealthCheck пингует Redis; false для незапущенного сервиса
func (rs *RedisService) HealthCheck(ctx context.Context) bool {
	if rs.state != StateRunning || rs.client == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rs.client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("⚠️ Redis не отвечает на ping: %v", err)
		return false
	}
	return true
}

// Stats возвращает статистику пула
func (rs *RedisService) Stats() PoolStats {
	stats := PoolStats{State: rs.state, Connected: rs.client != nil}
	if rs.client == nil {
		return stats
	}

	ps := rs.client.PoolStats()
	stats.Hits = ps.Hits
	stats.Misses = ps.Misses
	stats.Timeouts = ps.Timeouts
	stats.TotalConns = ps.TotalConns
	stats.IdleConns = ps.IdleConns
	stats.StaleConns = ps.StaleConns
	return stats
}

// Name возвращает имя сервиса
func (rs *RedisService) Name() string {
	return "redis"
}

// IsRunning возвращает true если сервис запущен
func (rs *RedisService) IsRunning() bool {
	return rs.state == StateRunning
}
