package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/scout/internal/cache"
	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/metrics"
	"github.com/newthinker/scout/internal/pipeline"
	"github.com/newthinker/scout/internal/scan"
	"github.com/newthinker/scout/internal/setup"
	"github.com/newthinker/scout/internal/storage"
)

func newServer(t *testing.T, scanStore storage.Store) *Server {
	t.Helper()

	cacheStore, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)

	cfg := config.Defaults()
	scorers := setup.NewEngine()
	scorers.Register(setup.NewPullback(cfg.Scoring))
	scorers.Register(setup.NewBreakout(cfg.Scoring))
	scorers.Register(setup.NewReversal(cfg.Scoring))

	reg := metrics.NewRegistry()
	p := pipeline.New(cfg,
		cache.NewReader(cacheStore, cfg.Cache.FreshnessHours, nil),
		scorers, scan.NewLocator(scanStore), reg, nil)

	return NewServer(Config{Host: "127.0.0.1", Port: 8085, MetricsPath: "/metrics"}, p, reg, nil)
}

func TestHandleHealth(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHandleScore_MethodNotAllowed(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/score", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleScore_BadBody(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/score", strings.NewReader("not json"))
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DOCUMENT_INVALID", resp.Error.Code)
}

func TestHandleScore_MissingScan(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/score", strings.NewReader(`{"scan":"nope.json"}`))
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleScore_RunsPipeline(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Write(context.Background(), "scan_api.json",
		[]byte(`{"scans": {"manual": ["ZZZZ"]}}`)))

	srv := newServer(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/score", strings.NewReader(`{"scan":"scan_api.json"}`))
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp struct {
		Data scoreResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, 1, resp.Data.Symbols)
	assert.Equal(t, 1, resp.Data.NoData)
}

func TestShutdown(t *testing.T) {
	store, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	srv := newServer(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
