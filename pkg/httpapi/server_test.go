package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/notifier"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/objectstore"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/orchestrator"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/password"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/progress"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/queue"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
}

func newTestServer(t *testing.T) (*Server, *progress.Tracker) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	q := queue.New(sqlx.NewDb(db, "postgres"), testLogger())
	store := objectstore.NewLocal(t.TempDir())
	tracker := progress.NewTracker()
	notif := notifier.New(false, "", "", 1, testLogger())
	orch := orchestrator.New(q, store, nil, password.NewResolver(""), tracker, notif, t.TempDir(), t.TempDir(), 2, testLogger())

	return New(orch, tracker, testLogger()), tracker
}

func TestExtractHandlerReturnsBatchIDImmediately(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body, _ := json.Marshal(map[string]interface{}{"queue_ids": []int64{1, 2}})
	req := httptest.NewRequest(http.MethodPost, "/api/document-text-extraction/extract", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp extractResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.BatchID)
	require.Equal(t, 0, resp.ProcessedCount)
	require.Equal(t, 0, resp.FailedCount)
}

func TestExtractHandlerUsesCallerSuppliedBatchID(t *testing.T) {
	srv, tracker := newTestServer(t)
	router := srv.Router()

	body, _ := json.Marshal(map[string]interface{}{"queue_ids": []int64{1}, "batch_id": "caller-batch-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/document-text-extraction/extract", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp extractResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "caller-batch-1", resp.BatchID)

	require.Eventually(t, func() bool {
		return tracker.Get("caller-batch-1") != nil
	}, time.Second, 10*time.Millisecond)
}

func TestExtractHandlerRejectsEmptyQueueIDs(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body, _ := json.Marshal(map[string]interface{}{"queue_ids": []int64{}})
	req := httptest.NewRequest(http.MethodPost, "/api/document-text-extraction/extract", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressHandlerReturnsSyntheticSnapshotForUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/document-text-extraction/progress/never-seen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap progress.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	require.Equal(t, progress.StatusCompleted, snap.Status)
	require.Equal(t, 100, snap.ProgressPercentage)
}

func TestProgressHandlerReturnsRealSnapshot(t *testing.T) {
	srv, tracker := newTestServer(t)
	router := srv.Router()

	id := tracker.Start([]int64{1, 2})
	tracker.SetTotalPages(id, 4)
	tracker.IncrementProcessed(id, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/document-text-extraction/progress/"+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap progress.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	require.Equal(t, progress.StatusProcessing, snap.Status)
	require.Equal(t, 50, snap.ProgressPercentage)
}

func TestHealthHandlerReportsCapabilities(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/document-text-extraction/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "document_text_extraction", resp.Service)
	require.Equal(t, "healthy", resp.Status)
	require.Contains(t, resp.Capabilities, "ocr_and_text_extraction")
}

func TestServiceInfoHandler(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/document-text-extraction/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp serviceInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "document_text_extraction", resp.Service)
	require.NotEmpty(t, resp.Endpoints)
}
