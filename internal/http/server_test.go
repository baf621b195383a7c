package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calm/internal/core"
	"calm/internal/log"
	"calm/internal/services"
	"calm/internal/tasks"
	"calm/internal/tasks/memory"
)

var testNow = time.Date(2024, time.January, 17, 12, 0, 0, 0, time.UTC)

type failingReader struct{ err error }

func (f failingReader) QueryTasks(context.Context, tasks.Query) ([]core.Task, error) {
	return nil, f.err
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Output: &bytes.Buffer{}})
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func seededDeps() Deps {
	store := memory.New([]core.Task{
		{ID: "t1", Date: "2024-01-15", Category: core.CategoryMVT, Status: core.StatusCompleted, StartTime: "09:00", EndTime: "10:30", ActualDuration: 2},
		{ID: "t2", Date: "2024-01-17", Category: core.CategoryPersonal, Status: core.StatusCompleted, StartTime: "18:00", EndTime: "19:00"},
	})
	charts := services.NewChartService(store, services.ChartOptions{CacheTTL: time.Minute, Now: func() time.Time { return testNow }})
	return Deps{
		Charts:  charts,
		TimeLog: services.NewTimeLogService(store, nil),
	}
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return doc
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder, methods string) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, methods, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Deps{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	notReady := newTestServer(t, Deps{Ready: func(context.Context) error { return errors.New("broker down") }})
	rec := do(t, notReady, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotionData_Week(t *testing.T) {
	srv := newTestServer(t, seededDeps())

	rec := do(t, srv, http.MethodGet, "/api/notion-data?date=2024-01-17&period=week", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertCORS(t, rec, "GET, OPTIONS")
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	doc := decode(t, rec)
	assert.Equal(t, "week", doc["period"])
	assert.Equal(t, "2024-01-17", doc["selectedDate"])
	assert.Equal(t, map[string]any{"start": "2024-01-15", "end": "2024-01-21"}, doc["dateRange"])
	assert.EqualValues(t, 2, doc["tasksProcessed"])

	buckets := doc["chartData"].([]any)
	require.Len(t, buckets, 7)
	monday := buckets[0].(map[string]any)
	assert.Equal(t, "Пон", monday["label"])
	assert.InDelta(t, 1.5, monday["MVT"], 1e-9)

	totals := doc["totals"].(map[string]any)
	assert.InDelta(t, 1.0, totals["Personal"], 1e-9)
}

func TestNotionData_Day(t *testing.T) {
	srv := newTestServer(t, seededDeps())

	rec := do(t, srv, http.MethodGet, "/api/notion-data?date=2024-01-15&period=day", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode(t, rec)
	assert.Len(t, doc["chartData"], 16)
	assert.Len(t, doc["periodLabels"], 16)
}

func TestNotionData_Options(t *testing.T) {
	srv := newTestServer(t, seededDeps())

	rec := do(t, srv, http.MethodOptions, "/api/notion-data", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec, "GET, OPTIONS")
}

func TestNotionData_Errors(t *testing.T) {
	t.Run("missing configuration", func(t *testing.T) {
		srv := newTestServer(t, Deps{})
		rec := do(t, srv, http.MethodGet, "/api/notion-data", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assertCORS(t, rec, "GET, OPTIONS")
		assert.Equal(t, "Missing configuration. Set NOTION_API_KEY and NOTION_DATABASE_ID.", decode(t, rec)["error"])
	})

	t.Run("upstream error keeps status and body", func(t *testing.T) {
		raw := `{"object":"error","status":401,"code":"unauthorized"}`
		reader := failingReader{err: &tasks.UpstreamError{Op: tasks.OpQuery, StatusCode: http.StatusUnauthorized, Body: raw}}
		srv := newTestServer(t, Deps{Charts: services.NewChartService(reader, services.ChartOptions{})})

		rec := do(t, srv, http.MethodGet, "/api/notion-data?period=month", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assertCORS(t, rec, "GET, OPTIONS")
		doc := decode(t, rec)
		assert.Equal(t, "Notion API error", doc["error"])
		assert.Equal(t, raw, doc["details"])
	})

	t.Run("invalid date is an internal error", func(t *testing.T) {
		srv := newTestServer(t, seededDeps())
		rec := do(t, srv, http.MethodGet, "/api/notion-data?date=2024-13-45", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		doc := decode(t, rec)
		assert.Equal(t, "Internal error", doc["error"])
		assert.NotEmpty(t, doc["message"])
	})

	t.Run("wrong method", func(t *testing.T) {
		srv := newTestServer(t, seededDeps())
		rec := do(t, srv, http.MethodDelete, "/api/notion-data", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assertCORS(t, rec, "GET, OPTIONS")
	})
}

func TestWeekData(t *testing.T) {
	srv := newTestServer(t, seededDeps())

	rec := do(t, srv, http.MethodGet, "/api/week-data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec, "GET, OPTIONS")

	doc := decode(t, rec)
	days := doc["weekData"].([]any)
	require.Len(t, days, 7)
	assert.Equal(t, "Пон", days[0].(map[string]any)["day"])
	assert.Equal(t, map[string]any{"start": "2024-01-15", "end": "2024-01-21"}, doc["weekRange"])
}

func TestSaveTime(t *testing.T) {
	srv := newTestServer(t, seededDeps())

	rec := do(t, srv, http.MethodPost, "/api/save-time", `{"taskId":"t1","seconds":3600}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertCORS(t, rec, "POST, OPTIONS")

	doc := decode(t, rec)
	assert.Equal(t, true, doc["success"])
	assert.Equal(t, "t1", doc["taskId"])
	assert.InDelta(t, 1.0, doc["addedHours"], 1e-9)
	assert.InDelta(t, 3.0, doc["totalHours"], 1e-9)

	rec = do(t, srv, http.MethodPost, "/api/save-time", `{"taskId":"t1","seconds":1800}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 3.5, decode(t, rec)["totalHours"], 1e-9)
}

func TestSaveTime_Errors(t *testing.T) {
	tests := []struct {
		name      string
		deps      Deps
		method    string
		body      string
		wantCode  int
		wantError string
	}{
		{"wrong method", seededDeps(), http.MethodGet, "", http.StatusMethodNotAllowed, "Method not allowed"},
		{"missing configuration", Deps{}, http.MethodPost, `{"taskId":"t1","seconds":60}`, http.StatusInternalServerError, "Missing configuration"},
		{"missing task", seededDeps(), http.MethodPost, `{"seconds":60}`, http.StatusBadRequest, "Missing taskId or seconds"},
		{"empty task", seededDeps(), http.MethodPost, `{"taskId":"","seconds":60}`, http.StatusBadRequest, "Missing taskId or seconds"},
		{"seconds as string", seededDeps(), http.MethodPost, `{"taskId":"t1","seconds":"60"}`, http.StatusBadRequest, "Missing taskId or seconds"},
		{"array body", seededDeps(), http.MethodPost, `[]`, http.StatusBadRequest, "Missing taskId or seconds"},
		{"malformed json", seededDeps(), http.MethodPost, `{"taskId":`, http.StatusInternalServerError, "Internal error"},
		{"unknown task", seededDeps(), http.MethodPost, `{"taskId":"nope","seconds":60}`, http.StatusNotFound, "Failed to get page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.deps)
			rec := do(t, srv, tt.method, "/api/save-time", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assertCORS(t, rec, "POST, OPTIONS")
			assert.Equal(t, tt.wantError, decode(t, rec)["error"])
		})
	}
}

func TestSaveTime_Options(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rec := do(t, srv, http.MethodOptions, "/api/save-time", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assertCORS(t, rec, "POST, OPTIONS")
}

func TestSaveTime_RateLimited(t *testing.T) {
	deps := seededDeps()
	deps.RateLimitPerMinute = 2
	srv := newTestServer(t, deps)

	for i := 0; i < 2; i++ {
		rec := do(t, srv, http.MethodPost, "/api/save-time", `{"taskId":"t2","seconds":60}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, srv, http.MethodPost, "/api/save-time", `{"taskId":"t2","seconds":60}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assertCORS(t, rec, "POST, OPTIONS")

	rec = do(t, srv, http.MethodOptions, "/api/save-time", "")
	assert.Equal(t, http.StatusOK, rec.Code, "preflight is not limited")
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rec := do(t, srv, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
