package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func serveHealthz(t *testing.T, handler *Handler) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w.Code, response
}

func TestHandler_Healthz(t *testing.T) {
	cases := []struct {
		name       string
		register   func(h *Handler)
		wantCode   int
		wantStatus Status
	}{
		{
			name:       "no checkers",
			register:   func(*Handler) {},
			wantCode:   http.StatusOK,
			wantStatus: StatusHealthy,
		},
		{
			name: "storage healthy",
			register: func(h *Handler) {
				h.RegisterChecker("storage", NewFuncChecker("storage", ok))
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusHealthy,
		},
		{
			name: "optional kafka down",
			register: func(h *Handler) {
				h.RegisterChecker("storage", NewFuncChecker("storage", ok))
				h.RegisterChecker("kafka", NewOptionalChecker("kafka", failing("no brokers")))
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusDegraded,
		},
		{
			name: "storage down wins over degraded",
			register: func(h *Handler) {
				h.RegisterChecker("kafka", NewOptionalChecker("kafka", failing("no brokers")))
				h.RegisterChecker("storage", NewFuncChecker("storage", failing("connection refused")))
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v1.2.3")
			tc.register(handler)

			code, response := serveHealthz(t, handler)

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantStatus, response.Status)
			assert.Equal(t, "v1.2.3", response.Version)
		})
	}
}

func TestHandler_ReportsCheckMessage(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", NewFuncChecker("storage", failing("connection refused")))

	report := handler.Report(context.Background())

	require.Contains(t, report.Checks, "storage")
	assert.Equal(t, "connection refused", report.Checks["storage"].Message)
	assert.Equal(t, "storage", report.Checks["storage"].Name)
}

func TestHandler_RegisterReplaces(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", NewFuncChecker("storage", failing("down")))
	handler.RegisterChecker("storage", NewFuncChecker("storage", ok))

	_, overall := handler.run(context.Background())
	assert.Equal(t, StatusHealthy, overall)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	cases := []struct {
		name     string
		checker  Checker
		wantCode int
		wantBody string
	}{
		{name: "ready", checker: NewFuncChecker("storage", ok), wantCode: http.StatusOK, wantBody: "ready"},
		{name: "degraded is ready", checker: NewOptionalChecker("kafka", failing("down")), wantCode: http.StatusOK, wantBody: "ready"},
		{name: "not ready", checker: NewFuncChecker("storage", failing("down")), wantCode: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("dev")
			handler.RegisterChecker("dep", tc.checker)

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestFuncChecker_ReceivesDeadline(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("slow", NewFuncChecker("slow", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("expected deadline")
		}
		time.Sleep(10 * time.Millisecond)
		return nil
	}))

	checks, overall := handler.run(context.Background())

	require.Equal(t, StatusHealthy, overall, checks["slow"].Message)
	assert.GreaterOrEqual(t, checks["slow"].DurationMs, int64(10))
}

func TestHandler_ChecksRunConcurrently(t *testing.T) {
	handler := NewHandler("dev")
	slow := func(context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	handler.RegisterChecker("a", NewFuncChecker("a", slow))
	handler.RegisterChecker("b", NewFuncChecker("b", slow))
	handler.RegisterChecker("c", NewFuncChecker("c", slow))

	started := time.Now()
	checks, _ := handler.run(context.Background())

	assert.Len(t, checks, 3)
	assert.Less(t, time.Since(started), 250*time.Millisecond)
}
