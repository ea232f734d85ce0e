package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	now := time.Unix(1700000000, 0).UTC()
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestPutUpsertsRow(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	payload := enricher.Payload{Results: enricher.ResultCounters{ITTTop5: 1}, Fetched: enricher.Flags{Results: true}}

	mock.ExpectExec("INSERT INTO rider_cache").
		WithArgs("remco-evenepoel", pgxmock.AnyArg(), now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), "remco-evenepoel", payload, time.Hour))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDecodesRow(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	rows := pgxmock.NewRows([]string{"payload", "expires_at"}).
		AddRow([]byte(`{"participations":["Scheldeprijs"],"fetched":{"participations":true}}`), now.Add(time.Hour))
	mock.ExpectQuery("SELECT payload, expires_at FROM rider_cache").
		WithArgs("tim-merlier", now).
		WillReturnRows(rows)

	entry, ok, err := store.Get(context.Background(), "tim-merlier")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"Scheldeprijs"}, entry.Payload.Participations)
	require.True(t, entry.Payload.Fetched.Participations)
	require.Equal(t, now.Add(time.Hour), entry.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMiss(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	mock.ExpectQuery("SELECT payload").WithArgs("nobody", now).WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPropagatesErrors(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	mock.ExpectQuery("SELECT payload").WithArgs("k", now).WillReturnError(errors.New("connection lost"))

	_, _, err := store.Get(context.Background(), "k")
	require.ErrorContains(t, err, "connection lost")
}

func TestEnsureSchemaAndPurge(t *testing.T) {
	t.Parallel()

	store, mock, _ := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rider_cache").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("DELETE FROM rider_cache").WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.Purge(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "bad;name")
	require.Error(t, err)
	_, err = NewWithPool(nil, "")
	require.Error(t, err)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
