// internal/infrastructure/persistence/redis_storage/level_storage/storage.go
package level_storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	redis_service "key-level-engine/internal/infrastructure/cache/redis"
	"key-level-engine/internal/infrastructure/persistence/redis_storage"
	"key-level-engine/pkg/logger"
	"key-level-engine/pkg/period"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	levelsKeyPrefix = "levels:"
	metaKeyPrefix   = "levels:meta:"
	minTTL          = 15 * time.Minute
)

// LevelStorage — Redis-хранилище текущего набора уровней.
// Ключ: levels:{symbol}:{timeframe}
// Структура: ZSET, score = Price, value = JSON уровня.
// Мета прохода: levels:meta:{symbol}:{timeframe}, JSON снимка без уровней.
type LevelStorage struct {
	client *redis.Client
}

// NewLevelStorage создаёт новое хранилище.
func NewLevelStorage(redisService *redis_service.RedisService) (*LevelStorage, error) {
	if redisService == nil {
		return nil, fmt.Errorf("redisService не инициализирован")
	}
	client := redisService.GetClient()
	if client == nil {
		return nil, redis_storage.ErrRedisNotReady
	}
	return &LevelStorage{client: client}, nil
}

func levelsKey(symbol, timeframe string) string {
	return levelsKeyPrefix + symbol + ":" + timeframe
}

func metaKey(symbol, timeframe string) string {
	return metaKeyPrefix + symbol + ":" + timeframe
}

// periodTTL — 3× длительность таймфрейма, не меньше 15 минут
func periodTTL(timeframe string) time.Duration {
	ttl := 3 * period.PeriodToDuration(timeframe)
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}

// SaveLevels заменяет набор уровней снимком (ZSET по цене) и выставляет TTL.
func (s *LevelStorage) SaveLevels(ctx context.Context, snapshot key_levels.Snapshot) error {
	key := levelsKey(snapshot.Symbol, snapshot.Timeframe)
	ttl := periodTTL(snapshot.Timeframe)

	meta := snapshot
	meta.Levels = nil
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("level_storage: ошибка сериализации снимка %s/%s: %w", snapshot.Symbol, snapshot.Timeframe, err)
	}

	pipe := s.client.Pipeline()
	// Удаляем старый набор
	pipe.Del(ctx, key)

	for _, l := range snapshot.Levels {
		data, err := json.Marshal(l)
		if err != nil {
			logger.Warn("⚠️ level_storage: ошибка сериализации уровня %s/%s: %v", snapshot.Symbol, snapshot.Timeframe, err)
			continue
		}
		pipe.ZAdd(ctx, key, &redis.Z{
			Score:  l.Price,
			Member: string(data),
		})
	}

	pipe.Expire(ctx, key, ttl)
	pipe.Set(ctx, metaKey(snapshot.Symbol, snapshot.Timeframe), string(metaData), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("level_storage: ошибка сохранения уровней %s/%s: %w", snapshot.Symbol, snapshot.Timeframe, err)
	}

	logger.Debug("💾 level_storage: сохранено %d уровней для %s/%s (TTL: %v)",
		len(snapshot.Levels), snapshot.Symbol, snapshot.Timeframe, ttl)
	return nil
}

// GetLevels возвращает уровни пары по возрастанию цены.
func (s *LevelStorage) GetLevels(ctx context.Context, symbol, timeframe string) ([]key_levels.KeyLevel, error) {
	results, err := s.client.ZRangeByScore(ctx, levelsKey(symbol, timeframe), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("level_storage: ошибка чтения уровней %s/%s: %w", symbol, timeframe, err)
	}

	levels := make([]key_levels.KeyLevel, 0, len(results))
	for _, raw := range results {
		var l key_levels.KeyLevel
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			logger.Warn("⚠️ level_storage: ошибка десериализации уровня: %v", err)
			continue
		}
		levels = append(levels, l)
	}
	return levels, nil
}

// GetSnapshot собирает последний опубликованный снимок.
func (s *LevelStorage) GetSnapshot(ctx context.Context, symbol, timeframe string) (key_levels.Snapshot, error) {
	raw, err := s.client.Get(ctx, metaKey(symbol, timeframe)).Result()
	if errors.Is(err, redis.Nil) {
		return key_levels.Snapshot{}, redis_storage.ErrLevelsNotFound
	}
	if err != nil {
		return key_levels.Snapshot{}, fmt.Errorf("level_storage: ошибка чтения снимка %s/%s: %w", symbol, timeframe, err)
	}

	var snapshot key_levels.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return key_levels.Snapshot{}, fmt.Errorf("level_storage: повреждённый снимок %s/%s: %w", symbol, timeframe, err)
	}

	snapshot.Levels, err = s.GetLevels(ctx, symbol, timeframe)
	if err != nil {
		return key_levels.Snapshot{}, err
	}
	return snapshot, nil
}

// GetNearestLevels находит ближайшую поддержку и сопротивление к currentPrice.
func (s *LevelStorage) GetNearestLevels(ctx context.Context, symbol, timeframe string, currentPrice float64) (key_levels.NearestLevels, error) {
	levels, err := s.GetLevels(ctx, symbol, timeframe)
	if err != nil {
		return key_levels.NearestLevels{}, err
	}
	return key_levels.FindNearest(levels, currentPrice), nil
}
