// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/pkg/logger"
	"key-level-engine/pkg/period"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация базы данных
type DatabaseConfig struct {
	// Основные параметры подключения
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`

	Enabled bool `mapstructure:"DB_ENABLED"`

	// Настройки пула соединений
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	MaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`

	// Создание схемы market_data при старте
	EnableAutoMigrate bool `mapstructure:"DB_ENABLE_AUTO_MIGRATE"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`     // localhost
	Port     int    `mapstructure:"REDIS_PORT"`     // 6379
	Password string `mapstructure:"REDIS_PASSWORD"` // пустой или пароль
	DB       int    `mapstructure:"REDIS_DB"`       // 0

	Enabled bool `mapstructure:"REDIS_ENABLED"`

	// Настройки пула соединений
	PoolSize        int           `mapstructure:"REDIS_POOL_SIZE"`         // 10
	MinIdleConns    int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`    // 5
	MaxRetries      int           `mapstructure:"REDIS_MAX_RETRIES"`       // 3
	MinRetryBackoff time.Duration `mapstructure:"REDIS_MIN_RETRY_BACKOFF"` // 8ms
	MaxRetryBackoff time.Duration `mapstructure:"REDIS_MAX_RETRY_BACKOFF"` // 512ms
	DialTimeout     time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`      // 5s
	ReadTimeout     time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`      // 3s
	WriteTimeout    time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`     // 3s
	PoolTimeout     time.Duration `mapstructure:"REDIS_POOL_TIMEOUT"`      // 4s

	// Кэш баров
	BarCacheEnabled    bool `mapstructure:"REDIS_BAR_CACHE_ENABLED"`     // true
	BarCacheMaxHistory int  `mapstructure:"REDIS_BAR_CACHE_MAX_HISTORY"` // 2000
}

// ============================================
// КОНФИГУРАЦИЯ ДЕТЕКТОРА УРОВНЕЙ
// ============================================

// DetectorConfig - параметры детекции, общие для всех пар
type DetectorConfig struct {
	LookbackBars          int     `mapstructure:"LEVELS_LOOKBACK_BARS"`
	MinStrength           float64 `mapstructure:"LEVELS_MIN_STRENGTH"`
	TouchZone             float64 `mapstructure:"LEVELS_TOUCH_ZONE"` // 0 = по ATR
	MinTouches            int     `mapstructure:"LEVELS_MIN_TOUCHES"`
	MaxBounceDelayBars    int     `mapstructure:"LEVELS_MAX_BOUNCE_DELAY"`
	AdvancedValidation    bool    `mapstructure:"LEVELS_ADVANCED_VALIDATION"`
	MaxLevels             int     `mapstructure:"LEVELS_MAX_LEVELS"`
	VolumePeriod          int     `mapstructure:"LEVELS_VOLUME_PERIOD"`
	VolumeSpikeMultiplier float64 `mapstructure:"LEVELS_VOLUME_SPIKE"`
}

// EngineConfig - цикл пересчёта
type EngineConfig struct {
	Symbols     []string      `mapstructure:"ENGINE_SYMBOLS"`
	Timeframes  []string      `mapstructure:"ENGINE_TIMEFRAMES"`
	Interval    time.Duration `mapstructure:"ENGINE_INTERVAL"`
	PassTimeout time.Duration `mapstructure:"ENGINE_PASS_TIMEOUT"`
	MetricsAddr string        `mapstructure:"METRICS_ADDR"`

	// Circuit breaker источника баров
	BreakerMaxFailures uint32        `mapstructure:"FEED_BREAKER_MAX_FAILURES"`
	BreakerOpenTimeout time.Duration `mapstructure:"FEED_BREAKER_OPEN_TIMEOUT"`
}

// LoggingConfig - логирование
type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
	File  string `mapstructure:"LOG_FILE"`
	Debug bool   `mapstructure:"DEBUG_MODE"`
}

// Config - конфигурация приложения
type Config struct {
	Environment string
	Version     string

	Database DatabaseConfig
	Redis    RedisConfig
	Detector DetectorConfig
	Engine   EngineConfig
	Logging  LoggingConfig
}

// ============================================
// ЗАГРУЗКА КОНФИГУРАЦИИ
// ============================================

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		fmt.Printf("⚠️  Config file not found, using environment variables\n")
	}

	cfg := &Config{}

	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	// ======================
	// БАЗА ДАННЫХ
	// ======================
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Database.MaxConnIdleTime = getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute)
	cfg.Database.EnableAutoMigrate = getEnvBool("DB_ENABLE_AUTO_MIGRATE", true)
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", true)

	// ======================
	// REDIS
	// ======================
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", 10)
	cfg.Redis.MinIdleConns = getEnvInt("REDIS_MIN_IDLE_CONNS", 5)
	cfg.Redis.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 3)
	cfg.Redis.MinRetryBackoff = getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	cfg.Redis.MaxRetryBackoff = getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	cfg.Redis.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.Redis.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.Redis.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.Redis.PoolTimeout = getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second)
	cfg.Redis.Enabled = getEnvBool("REDIS_ENABLED", true)
	cfg.Redis.BarCacheEnabled = getEnvBool("REDIS_BAR_CACHE_ENABLED", true)
	cfg.Redis.BarCacheMaxHistory = getEnvInt("REDIS_BAR_CACHE_MAX_HISTORY", 2000)

	// ======================
	// ДЕТЕКТОР
	// ======================
	cfg.Detector.LookbackBars = getEnvInt("LEVELS_LOOKBACK_BARS", key_levels.DefaultLookbackBars)
	cfg.Detector.MinStrength = getEnvFloat("LEVELS_MIN_STRENGTH", key_levels.DefaultMinStrength)
	cfg.Detector.TouchZone = getEnvFloat("LEVELS_TOUCH_ZONE", 0)
	cfg.Detector.MinTouches = getEnvInt("LEVELS_MIN_TOUCHES", key_levels.DefaultMinTouches)
	cfg.Detector.MaxBounceDelayBars = getEnvInt("LEVELS_MAX_BOUNCE_DELAY", key_levels.DefaultMaxBounceDelayBars)
	cfg.Detector.AdvancedValidation = getEnvBool("LEVELS_ADVANCED_VALIDATION", true)
	cfg.Detector.MaxLevels = getEnvInt("LEVELS_MAX_LEVELS", key_levels.DefaultMaxLevels)
	cfg.Detector.VolumePeriod = getEnvInt("LEVELS_VOLUME_PERIOD", key_levels.DefaultVolumePeriod)
	cfg.Detector.VolumeSpikeMultiplier = getEnvFloat("LEVELS_VOLUME_SPIKE", key_levels.DefaultVolumeSpikeMultiplier)

	// ======================
	// ДВИЖОК
	// ======================
	cfg.Engine.Symbols = parseList(getEnv("ENGINE_SYMBOLS", "EURUSD"))
	cfg.Engine.Timeframes = period.ParseList(getEnv("ENGINE_TIMEFRAMES", period.DefaultPeriod))
	cfg.Engine.Interval = getEnvDuration("ENGINE_INTERVAL", 5*time.Minute)
	cfg.Engine.PassTimeout = getEnvDuration("ENGINE_PASS_TIMEOUT", 30*time.Second)
	cfg.Engine.MetricsAddr = getEnv("METRICS_ADDR", ":9108")
	cfg.Engine.BreakerMaxFailures = uint32(getEnvInt("FEED_BREAKER_MAX_FAILURES", 3))
	cfg.Engine.BreakerOpenTimeout = getEnvDuration("FEED_BREAKER_OPEN_TIMEOUT", 30*time.Second)

	// ======================
	// ЛОГИРОВАНИЕ
	// ======================
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "")
	cfg.Logging.Debug = getEnvBool("DEBUG_MODE", false)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ============================================
// ВАЛИДАЦИЯ
// ============================================

// validate проверяет обязательные параметры конфигурации
func (c *Config) validate() error {
	var validationErrors []string

	if c.Database.Enabled {
		if c.Database.Host == "" {
			validationErrors = append(validationErrors, "DB_HOST is required")
		}
		if c.Database.Port <= 0 {
			validationErrors = append(validationErrors, "DB_PORT must be positive")
		}
		if c.Database.User == "" {
			validationErrors = append(validationErrors, "DB_USER is required")
		}
		if c.Database.Name == "" {
			validationErrors = append(validationErrors, "DB_NAME is required")
		}
	}

	if c.Redis.Enabled && c.Redis.Port <= 0 {
		validationErrors = append(validationErrors, "REDIS_PORT must be positive")
	}

	if len(c.Engine.Symbols) == 0 {
		validationErrors = append(validationErrors, "ENGINE_SYMBOLS is required")
	}
	if len(c.Engine.Timeframes) == 0 {
		validationErrors = append(validationErrors, "ENGINE_TIMEFRAMES: нет ни одного валидного таймфрейма")
	}
	if c.Engine.Interval <= 0 {
		validationErrors = append(validationErrors, "ENGINE_INTERVAL must be positive")
	}
	if c.Engine.PassTimeout <= 0 {
		validationErrors = append(validationErrors, "ENGINE_PASS_TIMEOUT must be positive")
	}

	// Параметры детектора проверяются тем же кодом, что и при создании реестра
	probe := c.detectorConfig("PROBE", period.DefaultPeriod)
	if err := probe.Validate(); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	if len(validationErrors) > 0 {
		errMsg := strings.Join(validationErrors, "; ")
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// Validate публичная обертка над validate
func (c *Config) Validate() error {
	return c.validate()
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// DetectorConfigs возвращает конфигурацию реестра на каждую пару symbol × timeframe
func (c *Config) DetectorConfigs() []key_levels.Config {
	configs := make([]key_levels.Config, 0, len(c.Engine.Symbols)*len(c.Engine.Timeframes))
	for _, symbol := range c.Engine.Symbols {
		for _, tf := range c.Engine.Timeframes {
			configs = append(configs, c.detectorConfig(symbol, tf))
		}
	}
	return configs
}

func (c *Config) detectorConfig(symbol, timeframe string) key_levels.Config {
	return key_levels.Config{
		Symbol:                symbol,
		Timeframe:             timeframe,
		LookbackBars:          c.Detector.LookbackBars,
		MinStrength:           c.Detector.MinStrength,
		TouchZone:             c.Detector.TouchZone,
		MinTouches:            c.Detector.MinTouches,
		MaxBounceDelayBars:    c.Detector.MaxBounceDelayBars,
		AdvancedValidation:    c.Detector.AdvancedValidation,
		MaxLevels:             c.Detector.MaxLevels,
		VolumePeriod:          c.Detector.VolumePeriod,
		VolumeSpikeMultiplier: c.Detector.VolumeSpikeMultiplier,
	}
}

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsDev возвращает true для окружения разработки
func (c *Config) IsDev() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// PrintSummary выводит основные параметры конфигурации
func (c *Config) PrintSummary() {
	logger.Info("📋 Конфигурация приложения:")
	logger.Info("   • Окружение: %s (версия %s)", c.Environment, c.Version)
	logger.Info("   • Уровень логирования: %s", c.Logging.Level)
	logger.Info("   • PostgreSQL: %v %s:%d/%s", c.Database.Enabled, c.Database.Host, c.Database.Port, c.Database.Name)
	logger.Info("   • Redis: %v %s (DB: %d, Pool: %d, кэш баров: %v)",
		c.Redis.Enabled, c.GetRedisAddress(), c.Redis.DB, c.Redis.PoolSize, c.Redis.BarCacheEnabled)
	logger.Info("   • Символы: %s", strings.Join(c.Engine.Symbols, ", "))
	logger.Info("   • Таймфреймы: %s", strings.Join(c.Engine.Timeframes, ", "))
	logger.Info("   • Интервал: %v, таймаут прохода: %v", c.Engine.Interval, c.Engine.PassTimeout)
	logger.Info("   • Детектор:")
	logger.Info("     - Окно: %d баров, мин. касаний: %d, мин. сила: %.2f",
		c.Detector.LookbackBars, c.Detector.MinTouches, c.Detector.MinStrength)
	if c.Detector.TouchZone > 0 {
		logger.Info("     - Зона касания: %.6f", c.Detector.TouchZone)
	} else {
		logger.Info("     - Зона касания: авто (ATR)")
	}
	logger.Info("     - Расширенная валидация: %v, макс. уровней: %d",
		c.Detector.AdvancedValidation, c.Detector.MaxLevels)
	logger.Info("   • Метрики: %s", c.Engine.MetricsAddr)
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseList разбирает список через запятую
func parseList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
