// internal/infrastructure/persistence/postgres/database/database_service.go
package database

import (
	"context"
	"fmt"
	"key-level-engine/internal/infrastructure/config"
	"key-level-engine/pkg/logger"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PoolStats — состояние подключения и пула для /healthz
type PoolStats struct {
	State           ServiceState `json:"state"`
	Connected       bool         `json:"connected"`
	OpenConnections int          `json:"open_connections"`
	InUse           int          `json:"in_use"`
	Idle            int          `json:"idle"`
	WaitCount       int64        `json:"wait_count"`
	WaitDuration    string       `json:"wait_duration"`
}

// DatabaseService сервис для работы с базой данных
type DatabaseService struct {
	config *config.Config
	db     *sqlx.DB
	mu     sync.RWMutex
	state  ServiceState
}

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateStopping ServiceState = "stopping"
	StateError    ServiceState = "error"
)

// NewDatabaseService создает новый сервис базы данных
func NewDatabaseService(cfg *config.Config) *DatabaseService {
	return &DatabaseService{
		config: cfg,
		state:  StateStopped,
	}
}

// NewDatabaseServiceWithDB оборачивает уже открытое соединение
func NewDatabaseServiceWithDB(db *sqlx.DB) *DatabaseService {
	return &DatabaseService{
		config: &config.Config{},
		db:     db,
		state:  StateRunning,
	}
}

// Start запускает сервис базы данных
func (ds *DatabaseService) Start(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state == StateRunning {
		return fmt.Errorf("database service already running")
	}

	logger.Info("🔄 Starting database service...")
	ds.state = StateStarting

	dbConfig := ds.config.Database

	logger.Info("📡 Connecting to PostgreSQL: %s:%d/%s",
		dbConfig.Host, dbConfig.Port, dbConfig.Name)

	db, err := sqlx.Open("postgres", ds.config.GetPostgresDSN())
	if err != nil {
		ds.state = StateError
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Настраиваем пул соединений
	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.MaxConnLifetime)
	db.SetConnMaxIdleTime(dbConfig.MaxConnIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		ds.state = StateError
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if dbConfig.EnableAutoMigrate {
		if err := EnsureSchema(pingCtx, db); err != nil {
			db.Close()
			ds.state = StateError
			return err
		}
	}

	ds.db = db
	ds.state = StateRunning

	logger.Info("✅ Successfully connected to PostgreSQL")
	logger.Info("   • Host: %s:%d", dbConfig.Host, dbConfig.Port)
	logger.Info("   • Database: %s", dbConfig.Name)
	logger.Info("   • Pool: %d/%d connections",
		dbConfig.MaxIdleConns, dbConfig.MaxOpenConns)

	return nil
}

// Stop останавливает сервис базы данных
func (ds *DatabaseService) Stop() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.state != StateRunning {
		return fmt.Errorf("database service is not running")
	}

	logger.Info("🛑 Stopping database service...")
	ds.state = StateStopping

	if ds.db != nil {
		if err := ds.db.Close(); err != nil {
			ds.state = StateError
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	ds.db = nil
	ds.state = StateStopped
	logger.Info("✅ Database service stopped")

	return nil
}

// GetDB возвращает соединение с базой данных
func (ds *DatabaseService) GetDB() *sqlx.DB {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.db
}

// State возвращает состояние сервиса
func (ds *DatabaseService) State() ServiceState {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.state
}

// HealthCheck проверяет здоровье базы данных
func (ds *DatabaseService) HealthCheck(ctx context.Context) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if ds.state != StateRunning || ds.db == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := ds.db.PingContext(pingCtx); err != nil {
		logger.Warn("⚠️ Database health check failed: %v", err)
		return false
	}

	return true
}

// Stats возвращает статистику пула
func (ds *DatabaseService) Stats() PoolStats {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	stats := PoolStats{State: ds.state, Connected: ds.db != nil}
	if ds.db == nil {
		return stats
	}

	st := ds.db.Stats()
	stats.OpenConnections = st.OpenConnections
	stats.InUse = st.InUse
	stats.Idle = st.Idle
	stats.WaitCount = st.WaitCount
	stats.WaitDuration = st.WaitDuration.String()
	return stats
}
