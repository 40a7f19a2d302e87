// application/bootstrap/health_test.go
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	redis_service "key-level-engine/internal/infrastructure/cache/redis"
	"key-level-engine/internal/infrastructure/persistence/postgres/database"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, app *Application) (int, HealthReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	app.healthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return rec.Code, report
}

func TestHealthzReportsServices(t *testing.T) {
	dbService, _ := newMockDB(t)
	client, redisMock := redismock.NewClientMock()
	rs := redis_service.NewRedisServiceWithClient(client)

	// readiness в Prepare и проверка в /healthz
	redisMock.ExpectPing().SetVal("PONG")
	redisMock.ExpectPing().SetVal("PONG")

	app := newApplicationWithServices(testConfig(), dbService, rs)
	require.NoError(t, app.Prepare(context.Background()))
	defer app.eventBus.Stop()

	code, report := serveHealth(t, app)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, report.Healthy)
	assert.Equal(t, 1, report.Pairs)
	assert.Equal(t, "closed", report.Breaker)
	require.Len(t, report.Services, 2)
	assert.Equal(t, "postgres", report.Services[0].Name)
	assert.True(t, report.Services[0].Healthy)
	assert.Equal(t, "redis", report.Services[1].Name)
	assert.True(t, report.Services[1].Optional)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHealthzUnavailableWithoutDatabase(t *testing.T) {
	cfg := testConfig()
	app := newApplicationWithServices(cfg, database.NewDatabaseService(cfg), nil)

	code, report := serveHealth(t, app)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, report.Healthy)
	require.Len(t, report.Services, 1)
	assert.False(t, report.Services[0].Healthy)
	assert.Empty(t, report.Breaker)
}

func TestHealthIgnoresOptionalRedis(t *testing.T) {
	dbService, _ := newMockDB(t)
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectPing().SetErr(errors.New("connection refused"))

	app := newApplicationWithServices(testConfig(), dbService, redis_service.NewRedisServiceWithClient(client))
	report := app.Health(context.Background())

	assert.True(t, report.Healthy)
	require.Len(t, report.Services, 2)
	assert.False(t, report.Services[1].Healthy)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPrepareDisablesUnreadyRedis(t *testing.T) {
	dbService, _ := newMockDB(t)
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectPing().SetErr(errors.New("connection refused"))

	app := newApplicationWithServices(testConfig(), dbService, redis_service.NewRedisServiceWithClient(client))
	require.NoError(t, app.Prepare(context.Background()))
	defer app.eventBus.Stop()

	assert.Nil(t, app.redis)
	assert.Nil(t, app.levels)
	assert.NotNil(t, app.Engine())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
