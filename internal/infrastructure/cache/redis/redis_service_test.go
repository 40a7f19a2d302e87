// internal/infrastructure/cache/redis/redis_service_test.go
package redis

import (
	"context"
	"errors"
	"testing"

	"key-level-engine/internal/infrastructure/config"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisServiceHealthCheck(t *testing.T) {
	client, mock := redismock.NewClientMock()
	rs := NewRedisServiceWithClient(client)

	mock.ExpectPing().SetVal("PONG")
	assert.True(t, rs.HealthCheck(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	assert.False(t, rs.HealthCheck(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisServiceStateTransitions(t *testing.T) {
	rs := NewRedisService(&config.Config{})
	assert.Equal(t, StateStopped, rs.State())
	assert.False(t, rs.IsRunning())
	assert.False(t, rs.HealthCheck(context.Background()))
	assert.Error(t, rs.Stop())

	client, _ := redismock.NewClientMock()
	rs = NewRedisServiceWithClient(client)
	assert.True(t, rs.IsRunning())
	stats := rs.Stats()
	assert.True(t, stats.Connected)
	assert.Equal(t, StateRunning, stats.State)

	require.NoError(t, rs.Stop())
	assert.Equal(t, StateStopped, rs.State())
	assert.Nil(t, rs.GetClient())
}

func TestRedisServiceStatsWhenStopped(t *testing.T) {
	rs := NewRedisService(&config.Config{})
	stats := rs.Stats()
	assert.Equal(t, StateStopped, stats.State)
	assert.False(t, stats.Connected)
	assert.Equal(t, "redis", rs.Name())
}
