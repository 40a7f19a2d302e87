// internal/infrastructure/persistence/redis_storage/bar_storage/storage.go
package bar_storage

import (
	"context"
	"encoding/json"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	redis_service "key-level-engine/internal/infrastructure/cache/redis"
	"key-level-engine/internal/infrastructure/persistence/redis_storage"
	"key-level-engine/pkg/logger"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// DefaultMaxHistory — сколько баров храним на пару по умолчанию
const DefaultMaxHistory = 2000

// BarStorage — кэш закрытых баров в Redis.
// Ключ: bars:{symbol}:{timeframe}
// Структура: ZSET, score = Unix-время открытия, value = JSON бара.
type BarStorage struct {
	client     *redis.Client
	prefix     string
	maxHistory int
}

// NewBarStorage создает новое хранилище баров
func NewBarStorage(redisService *redis_service.RedisService, maxHistory int) (*BarStorage, error) {
	if redisService == nil {
		return nil, fmt.Errorf("сервис Redis не инициализирован")
	}
	client := redisService.GetClient()
	if client == nil {
		return nil, redis_storage.ErrRedisNotReady
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &BarStorage{
		client:     client,
		prefix:     "bars:",
		maxHistory: maxHistory,
	}, nil
}

func (s *BarStorage) historyKey(symbol, timeframe string) string {
	return s.prefix + symbol + ":" + timeframe
}

// SaveBars добавляет бары в историю. Бар с тем же временем заменяется.
func (s *BarStorage) SaveBars(ctx context.Context, symbol, timeframe string, bars []key_levels.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	key := s.historyKey(symbol, timeframe)

	pipe := s.client.Pipeline()
	for _, bar := range bars {
		data, err := json.Marshal(bar)
		if err != nil {
			return fmt.Errorf("bar_storage: ошибка сериализации бара %s/%s: %w", symbol, timeframe, err)
		}
		ts := bar.Time.Unix()
		score := strconv.FormatInt(ts, 10)
		pipe.ZRemRangeByScore(ctx, key, score, score)
		pipe.ZAdd(ctx, key, &redis.Z{
			Score:  float64(ts),
			Member: string(data),
		})
	}
	// Ограничиваем размер истории
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxHistory-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("bar_storage: ошибка сохранения баров %s/%s: %w", symbol, timeframe, err)
	}

	logger.Debug("💾 bar_storage: закэшировано %d баров %s/%s", len(bars), symbol, timeframe)
	return nil
}

// GetHistory возвращает последние limit баров по возрастанию времени
func (s *BarStorage) GetHistory(ctx context.Context, symbol, timeframe string, limit int) ([]key_levels.Bar, error) {
	if limit <= 0 {
		return nil, redis_storage.ErrInvalidLimit
	}

	results, err := s.client.ZRevRangeByScore(ctx, s.historyKey(symbol, timeframe), &redis.ZRangeBy{
		Min:    "-inf",
		Max:    "+inf",
		Offset: 0,
		Count:  int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("bar_storage: ошибка чтения истории %s/%s: %w", symbol, timeframe, err)
	}

	bars := make([]key_levels.Bar, 0, len(results))
	for _, raw := range results {
		var bar key_levels.Bar
		if err := json.Unmarshal([]byte(raw), &bar); err != nil {
			logger.Warn("⚠️ bar_storage: пропущен повреждённый бар %s/%s: %v", symbol, timeframe, err)
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return bars, nil
}

// MaxHistory возвращает лимит хранимой истории
func (s *BarStorage) MaxHistory() int {
	return s.maxHistory
}
