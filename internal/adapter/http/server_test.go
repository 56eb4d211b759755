package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/region-weather/internal/adapter/http"
)

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func probeServer(readyErr error) *httpadapter.Server {
	ready := readinessFunc(func(context.Context) error { return readyErr })
	return httpadapter.NewServer(":0", ready, nil, slog.New(slog.DiscardHandler))
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]string
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		readyErr   error
		wantStatus int
		wantBody   map[string]string
	}{
		{"liveness", "/healthz", nil, http.StatusOK, map[string]string{"status": "ok"}},
		{"liveness ignores readiness", "/healthz", errors.New("no snapshot"), http.StatusOK, map[string]string{"status": "ok"}},
		{"ready", "/readyz", nil, http.StatusOK, map[string]string{"status": "ready"}},
		{"not ready", "/readyz", errors.New("no snapshot applied yet"), http.StatusServiceUnavailable,
			map[string]string{"status": "not_ready", "reason": "no snapshot applied yet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, probeServer(tt.readyErr), tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, probeServer(nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPINotMountedWithoutHandler(t *testing.T) {
	rec, _ := get(t, probeServer(nil), "/api/v1/state")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDEchoedInLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := httpadapter.NewServer(":0", readinessFunc(func(context.Context) error { return nil }), nil, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set("X-Request-Id", "req-42")
	srv.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}

func TestProbesAreNotLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	srv := httpadapter.NewServer(":0", readinessFunc(func(context.Context) error { return nil }), nil, logger)

	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}
