// internal/infrastructure/persistence/postgres/database/database_service_test.go
package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS market_data").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaError(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS market_data").
		WillReturnError(errors.New("permission denied"))

	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestDatabaseServiceHealthCheck(t *testing.T) {
	db, mock := newMockDB(t)
	ds := NewDatabaseServiceWithDB(db)

	mock.ExpectPing()
	assert.True(t, ds.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	assert.False(t, ds.HealthCheck(context.Background()))

	mock.ExpectClose()
	require.NoError(t, ds.Stop())
	assert.Equal(t, StateStopped, ds.State())
	assert.False(t, ds.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseServiceStats(t *testing.T) {
	ds := NewDatabaseService(nil)
	stats := ds.Stats()
	assert.Equal(t, StateStopped, stats.State)
	assert.False(t, stats.Connected)
	assert.Zero(t, stats.OpenConnections)
	assert.Error(t, ds.Stop())
}
