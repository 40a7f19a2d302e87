// internal/infrastructure/persistence/redis_storage/level_storage/storage_test.go
package level_storage

import (
	"context"
	"encoding/json"
	"errors"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	redis_service "key-level-engine/internal/infrastructure/cache/redis"
	"key-level-engine/internal/infrastructure/persistence/redis_storage"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() key_levels.Snapshot {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return key_levels.Snapshot{
		PassID:         "pass-1",
		Symbol:         "EURUSD",
		Timeframe:      "1h",
		ReferencePrice: 1.1020,
		TouchZone:      0.0005,
		CreatedAt:      t0,
		Levels: []key_levels.KeyLevel{
			{Price: 1.1050, IsResistance: true, TouchCount: 3, Strength: 0.99, FirstTouchTime: t0, LastTouchTime: t0.Add(20 * time.Hour)},
			{Price: 1.1000, IsResistance: false, TouchCount: 3, Strength: 0.97, FirstTouchTime: t0, LastTouchTime: t0.Add(15 * time.Hour)},
		},
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestNewLevelStorageRequiresClient(t *testing.T) {
	_, err := NewLevelStorage(nil)
	assert.Error(t, err)

	_, err = NewLevelStorage(redis_service.NewRedisServiceWithClient(nil))
	assert.ErrorIs(t, err, redis_storage.ErrRedisNotReady)
}

func TestSaveLevels(t *testing.T) {
	client, mock := redismock.NewClientMock()
	storage, err := NewLevelStorage(redis_service.NewRedisServiceWithClient(client))
	require.NoError(t, err)

	snap := testSnapshot()
	meta := snap
	meta.Levels = nil

	mock.ExpectDel("levels:EURUSD:1h").SetVal(1)
	for _, l := range snap.Levels {
		mock.ExpectZAdd("levels:EURUSD:1h", &redis.Z{Score: l.Price, Member: mustJSON(t, l)}).SetVal(1)
	}
	mock.ExpectExpire("levels:EURUSD:1h", 3*time.Hour).SetVal(true)
	mock.ExpectSet("levels:meta:EURUSD:1h", mustJSON(t, meta), 3*time.Hour).SetVal("OK")

	require.NoError(t, storage.SaveLevels(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNearestLevels(t *testing.T) {
	client, mock := redismock.NewClientMock()
	storage, err := NewLevelStorage(redis_service.NewRedisServiceWithClient(client))
	require.NoError(t, err)

	snap := testSnapshot()
	mock.ExpectZRangeByScore("levels:EURUSD:1h", &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).
		SetVal([]string{mustJSON(t, snap.Levels[1]), "not-json", mustJSON(t, snap.Levels[0])})

	near, err := storage.GetNearestLevels(context.Background(), "EURUSD", "1h", 1.1025)
	require.NoError(t, err)
	require.NotNil(t, near.Support)
	require.NotNil(t, near.Resistance)
	assert.Equal(t, 1.1000, near.Support.Price)
	assert.Equal(t, 1.1050, near.Resistance.Price)
	assert.Equal(t, 3, near.Resistance.TouchCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshot(t *testing.T) {
	client, mock := redismock.NewClientMock()
	storage, err := NewLevelStorage(redis_service.NewRedisServiceWithClient(client))
	require.NoError(t, err)

	snap := testSnapshot()
	meta := snap
	meta.Levels = nil

	mock.ExpectGet("levels:meta:EURUSD:1h").SetVal(mustJSON(t, meta))
	mock.ExpectZRangeByScore("levels:EURUSD:1h", &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).
		SetVal([]string{mustJSON(t, snap.Levels[1]), mustJSON(t, snap.Levels[0])})

	got, err := storage.GetSnapshot(context.Background(), "EURUSD", "1h")
	require.NoError(t, err)
	assert.Equal(t, "pass-1", got.PassID)
	assert.Equal(t, 1.1020, got.ReferencePrice)
	require.Len(t, got.Levels, 2)
	assert.Equal(t, 1.1000, got.Levels[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshotNotFound(t *testing.T) {
	client, mock := redismock.NewClientMock()
	storage, err := NewLevelStorage(redis_service.NewRedisServiceWithClient(client))
	require.NoError(t, err)

	mock.ExpectGet("levels:meta:GBPUSD:4h").RedisNil()

	_, err = storage.GetSnapshot(context.Background(), "GBPUSD", "4h")
	assert.True(t, errors.Is(err, redis_storage.ErrLevelsNotFound))
}

func TestPeriodTTL(t *testing.T) {
	assert.Equal(t, 3*time.Hour, periodTTL("1h"))
	assert.Equal(t, 15*time.Minute, periodTTL("1m"))
	assert.Equal(t, 72*time.Hour, periodTTL("1d"))
}
