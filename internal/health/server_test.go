package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := NewServer(Config{ServiceName: "form-signals-worker", Version: "1.2.0", Commit: "abc123"})

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "form-signals-worker", body.Service)
	assert.Equal(t, "1.2.0", body.Version)

	assert.Equal(t, http.StatusOK, get(t, s, "/live").Code)
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		db         DatabasePinger
		wantStatus int
		wantDB     string
	}{
		{name: "not marked ready", ready: false, db: fakePinger{}, wantStatus: http.StatusServiceUnavailable, wantDB: "ok"},
		{name: "ready with healthy db", ready: true, db: fakePinger{}, wantStatus: http.StatusOK, wantDB: "ok"},
		{name: "ready with failing db", ready: true, db: fakePinger{err: errors.New("connection refused")}, wantStatus: http.StatusServiceUnavailable, wantDB: "error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "worker", DB: tt.db})
			s.SetReady(tt.ready)

			rec := get(t, s, "/ready")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ReadyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDB, body.Checks["database"])
		})
	}
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("form_signals_up 1\n"))
	})

	s := NewServer(Config{ServiceName: "worker", Metrics: metrics, MetricsPath: "/internal/metrics"})
	rec := get(t, s, "/internal/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "form_signals_up")

	assert.Equal(t, http.StatusNotFound, get(t, NewServer(Config{}), "/metrics").Code)
}

func TestNewServerDefaultPort(t *testing.T) {
	assert.Equal(t, DefaultPort, NewServer(Config{}).port)
	assert.Equal(t, 9090, NewServer(Config{Port: 9090}).port)
}

func TestExtraHandlersMounted(t *testing.T) {
	s := NewServer(Config{Handlers: map[string]http.Handler{
		"/ws/opportunities": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	}})
	assert.Equal(t, http.StatusTeapot, get(t, s, "/ws/opportunities").Code)
}
