package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"HemoPulse/internal/domain/models"
	"HemoPulse/internal/repository"
	"HemoPulse/internal/services/demand"
	"HemoPulse/internal/usecase"
	"HemoPulse/pkg/cache"
	xlogger "HemoPulse/pkg/logger"
	"HemoPulse/pkg/queue"
)

type recorderMetrics struct {
	errors map[string]int
}

func (m *recorderMetrics) RecordRun(string) {}

func (m *recorderMetrics) RecordError(kind string) { m.errors[kind]++ }

func (m *recorderMetrics) RecordTrainingLoss(float64) {}

func (m *recorderMetrics) RecordLatency(string, float64) {}

func (m *recorderMetrics) RecordPublished(string) {}

// The transport status is always 200; the envelope status carries the
// semantic code.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type queueStub struct {
	types    []string
	payloads []interface{}
}

func (q *queueStub) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

func testHandlerWithQueue(t *testing.T, jobs queue.QueueService) *echo.Echo {
	t.Helper()

	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	gen := demand.NewGenerator(demand.WithSeed(11), demand.WithClock(func() time.Time {
		return time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	}))
	uc := usecase.NewSnapshotUseCase(
		gen,
		demand.NewForecaster(),
		repository.NewMemorySnapshotStore(),
		repository.NewNoopPublisher(),
		&recorderMetrics{errors: make(map[string]int)},
		nil,
	)

	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	h := NewDemandEchoHandler(log, uc, mem, jobs, 2, 0, time.Minute)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func testHandler(t *testing.T) *echo.Echo {
	t.Helper()
	return testHandlerWithQueue(t, nil)
}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("transport status = %d\nbody: %s", rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestHistoryEndpoint(t *testing.T) {
	e := testHandler(t)

	env := doJSON(t, e, http.MethodGet, "/api/demand/history", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}

	var data struct {
		Rows  []models.DemandPointDTO `json:"rows"`
		Total int64                   `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Total != 31 || len(data.Rows) != 31 {
		t.Fatalf("total = %d, rows = %d, want 31", data.Total, len(data.Rows))
	}
	if data.Rows[30].Date != "Mar 14" {
		t.Fatalf("last row date = %q, want Mar 14", data.Rows[30].Date)
	}
	if data.Rows[0].Predicted != 0 {
		t.Fatalf("history rows must carry no prediction")
	}
}

func TestForecastEndpoint(t *testing.T) {
	e := testHandler(t)

	env := doJSON(t, e, http.MethodGet, "/api/demand/forecast", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}

	var data struct {
		Rows  []models.DemandPointDTO `json:"rows"`
		Total int64                   `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Total != 7 {
		t.Fatalf("total = %d, want 7", data.Total)
	}
	if data.Rows[0].Date != "Mar 15" {
		t.Fatalf("first forecast date = %q, want Mar 15", data.Rows[0].Date)
	}
	for i, row := range data.Rows {
		if row.Actual != 0 {
			t.Fatalf("forecast row %d carries an actual", i)
		}
	}
}

func TestDashboardEndpointCaches(t *testing.T) {
	e := testHandler(t)

	env := doJSON(t, e, http.MethodGet, "/api/demand/dashboard", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}

	var first models.DashboardResponse
	if err := json.Unmarshal(env.Data, &first); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(first.Series) != 38 {
		t.Fatalf("series length = %d, want 38", len(first.Series))
	}
	if first.Summary == nil {
		t.Fatalf("dashboard must carry a summary")
	}
	if len(first.Recommendations) == 0 {
		t.Fatalf("dashboard must carry recommendations")
	}

	env2 := doJSON(t, e, http.MethodGet, "/api/demand/dashboard", "")
	var second models.DashboardResponse
	if err := json.Unmarshal(env2.Data, &second); err != nil {
		t.Fatalf("decode cached data: %v", err)
	}
	if second.RunID != first.RunID || len(second.Series) != len(first.Series) {
		t.Fatalf("cached dashboard differs: %q vs %q", second.RunID, first.RunID)
	}
}

func TestRefreshEndpointWait(t *testing.T) {
	e := testHandler(t)

	// Seed the first snapshot so refresh provably replaces it.
	env := doJSON(t, e, http.MethodGet, "/api/demand/dashboard", "")
	var before models.DashboardResponse
	if err := json.Unmarshal(env.Data, &before); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}

	env = doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": true}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", env.Status)
	}
	var res models.RefreshResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if !res.Started || res.RunID == "" {
		t.Fatalf("refresh response = %+v", res)
	}
	if res.RunID == before.RunID {
		t.Fatalf("refresh must produce a new run")
	}
}

func TestRefreshEndpointAsync(t *testing.T) {
	e := testHandler(t)

	env := doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": false}`)
	if env.Status != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", env.Status)
	}
	var res models.RefreshResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	if !res.Started || res.RunID != "" {
		t.Fatalf("async refresh response = %+v", res)
	}
}

func TestRefreshEndpointQueuesWhenConfigured(t *testing.T) {
	q := &queueStub{}
	e := testHandlerWithQueue(t, q)

	env := doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": false, "note": "restock"}`)
	if env.Status != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", env.Status)
	}
	if len(q.types) != 1 || q.types[0] != usecase.JobTypeRebuild {
		t.Fatalf("enqueued types = %v", q.types)
	}
	payload, ok := q.payloads[0].(usecase.RebuildPayload)
	if !ok {
		t.Fatalf("payload type = %T", q.payloads[0])
	}
	if payload.Trigger != usecase.TriggerRefresh || payload.Note != "restock" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestRefreshEndpointRateLimited(t *testing.T) {
	e := testHandler(t)

	// Capacity is 2 with no refill; the third call must be throttled.
	for i := 0; i < 2; i++ {
		env := doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": true}`)
		if env.Status != http.StatusOK {
			t.Fatalf("call %d status = %d", i+1, env.Status)
		}
	}
	env := doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": true}`)
	if env.Status != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", env.Status)
	}
}

func TestRefreshEndpointRejectsLongNote(t *testing.T) {
	e := testHandler(t)

	long := strings.Repeat("x", 81)
	env := doJSON(t, e, http.MethodPost, "/api/demand/refresh", `{"wait": true, "note": "`+long+`"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := testHandler(t)

	probe := func() map[string]string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		return body
	}

	if body := probe(); body["snapshot"] != "pending" {
		t.Fatalf("snapshot = %q before first run, want pending", body["snapshot"])
	}

	doJSON(t, e, http.MethodGet, "/api/demand/history", "")

	body := probe()
	if body["status"] != "ok" {
		t.Fatalf("status = %q", body["status"])
	}
	if body["snapshot"] != "ready" {
		t.Fatalf("snapshot = %q after first run, want ready", body["snapshot"])
	}
}
