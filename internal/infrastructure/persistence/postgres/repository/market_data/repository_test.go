package market_data_repo

import (
	"context"
	"errors"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"symbol", "timeframe", "ts", "open", "high", "low", "close", "volume"}

func newRepo(t *testing.T) (MarketDataRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewMarketDataRepository(sqlx.NewDb(db, "postgres")), mock, func() { db.Close() }
}

func TestFetchBarsReturnsChronologicalOrder(t *testing.T) {
	repo, mock, done := newRepo(t)
	defer done()

	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("EURUSD", "1h", t0.Add(2*time.Hour), 1.1010, 1.1020, 1.1000, 1.1015, 300.0).
		AddRow("EURUSD", "1h", t0.Add(time.Hour), 1.1005, 1.1012, 1.0998, 1.1010, 200.0).
		AddRow("EURUSD", "1h", t0, 1.1000, 1.1008, 1.0995, 1.1005, 100.0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM market_data")).
		WithArgs("EURUSD", "1h", 3).
		WillReturnRows(rows)

	bars, err := repo.FetchBars(context.Background(), "EURUSD", "1h", 3)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, t0, bars[0].Time)
	assert.Equal(t, t0.Add(2*time.Hour), bars[2].Time)
	assert.Equal(t, 100.0, bars[0].Volume)
	assert.NoError(t, key_levels.ValidateBars(bars))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchBarsQueryError(t *testing.T) {
	repo, mock, done := newRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM market_data")).
		WithArgs("EURUSD", "1h", 10).
		WillReturnError(errors.New("relation does not exist"))

	_, err := repo.FetchBars(context.Background(), "EURUSD", "1h", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MarketDataRepo.FetchBars")
}

func TestFetchBarsRejectsNonPositiveCount(t *testing.T) {
	repo, _, done := newRepo(t)
	defer done()

	_, err := repo.FetchBars(context.Background(), "EURUSD", "1h", 0)
	assert.Error(t, err)
}

func TestSaveBars(t *testing.T) {
	repo, mock, done := newRepo(t)
	defer done()

	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []key_levels.Bar{
		{Time: t0, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 10},
		{Time: t0.Add(time.Hour), Open: 1.15, High: 1.25, Low: 1.1, Close: 1.2, Volume: 12},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO market_data")).
		WithArgs("EURUSD", "1h", t0, 1.1, 1.2, 1.0, 1.15, 10.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO market_data")).
		WithArgs("EURUSD", "1h", t0.Add(time.Hour), 1.15, 1.25, 1.1, 1.2, 12.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := repo.SaveBars(context.Background(), "EURUSD", "1h", bars)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBarsRollsBackOnError(t *testing.T) {
	repo, mock, done := newRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO market_data")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.SaveBars(context.Background(), "EURUSD", "1h", []key_levels.Bar{
		{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
