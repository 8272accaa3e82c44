package queue

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB, log.New(nil)), mock
}

func TestTryAcquireLockSucceedsOnCompareAndSet(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE doc_text_extraction_queue").
		WithArgs(sqlmock.AnyArg(), "D1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.TryAcquireLock(context.Background(), "D1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTryAcquireLockFailsWhenAlreadyProcessing(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE doc_text_extraction_queue").
		WithArgs(sqlmock.AnyArg(), "D1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.TryAcquireLock(context.Background(), "D1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReleaseLockAlwaysExecutes(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE doc_text_extraction_queue").
		WithArgs("D1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.ReleaseLock(context.Background(), "D1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetErrorWritesBothMessageFields(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE doc_text_extraction_queue").
		WithArgs("boom", "D1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetError(context.Background(), "D1", "boom")
	require.NoError(t, err)
}

func TestSetURIWritesRequestedField(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec("UPDATE doc_text_extraction_queue SET datalake_text_uri").
		WithArgs("/out/D1/extracted_text", "D1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetURI(context.Background(), "D1", URIFieldDatalakeText, "/out/D1/extracted_text")
	require.NoError(t, err)
}

func TestFetchPendingReturnsEmptyForNoIDs(t *testing.T) {
	store, _ := newTestStore(t)

	rows, err := store.FetchPending(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, rows)
}
