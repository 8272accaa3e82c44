package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
}

func TestNotifyDisabledIsNoOp(t *testing.T) {
	n := New(false, "http://unreachable.invalid", "/x", 1, testLogger())
	err := n.Notify(context.Background(), 1, "D1")
	require.NoError(t, err)
}

func TestNotifySuccessOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := New(true, srv.URL, "/classify", 5, testLogger())
	err := n.Notify(context.Background(), 42, "D1")
	require.NoError(t, err)
}

func TestNotifyLogsOnlyFor5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(true, srv.URL, "/classify", 5, testLogger())
	err := n.Notify(context.Background(), 42, "D1")
	assert.Error(t, err) // informational only; callers must not propagate as document failure
}

func TestNotifyTimesOutWithoutBlockingForever(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(true, srv.URL, "/classify", 0, testLogger())
	n.client.Timeout = 1 * time.Millisecond

	err := n.Notify(context.Background(), 42, "D1")
	assert.Error(t, err)
}
