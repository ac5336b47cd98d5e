package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, retries int) *Client {
	c := NewClient(baseURL, 5*time.Second, retries, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.backoff = time.Millisecond
	c.maxBackoff = 2 * time.Millisecond
	return c
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/HIV_data.xlsx", r.URL.Path)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/data/", 0)
	data, err := c.Fetch(context.Background(), "HIV_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("http", "success")), 0)
}

func TestClient_Fetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.Fetch(context.Background(), "Missing_data.xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	data, err := c.Fetch(context.Background(), "TB_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	_, err := c.Fetch(context.Background(), "TB_data.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(2), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("http", "error")), 0)
}

func TestClient_Fetch_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.Fetch(context.Background(), "TB_data.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	c.backoff = time.Hour
	c.maxBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "TB_data.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDir_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usa_states.geojson"), []byte(`{}`), 0o600))
	d := NewDir(dir, observability.NewMetricsForTesting())

	data, err := d.Fetch(context.Background(), "usa_states.geojson")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)

	_, err = d.Fetch(context.Background(), "Dengue_data.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = d.Fetch(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file name")
}

func TestNew_PicksSource(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.IsType(t, &Client{}, New("https://example.org/data", Options{}, logger, metrics))
	assert.IsType(t, &Dir{}, New("./data", Options{}, logger, metrics))
	assert.IsType(t, &Cached{}, New("./data", Options{CacheSize: 4}, logger, metrics))
}

func TestClient_Fetch_ZeroBackoffRetriesImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	c.backoff = 0
	c.maxBackoff = 0

	data, err := c.Fetch(context.Background(), "TB_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, int32(3), calls.Load())
}
