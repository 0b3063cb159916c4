package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yuqie6/st-leaderboard/internal/dto"
	"github.com/yuqie6/st-leaderboard/internal/eventbus"
	"github.com/yuqie6/st-leaderboard/internal/repository"
	"github.com/yuqie6/st-leaderboard/internal/service"
	"github.com/yuqie6/st-leaderboard/internal/testutil"
)

// 2024-03-10T00:00:00Z
const resetStartMs = int64(1710028800000)

func newTestHandler(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	db := testutil.OpenTestDB(t)
	fx := testutil.NewFixture(t, db)

	r := fx.Reset("2024-03-10", resetStartMs)
	site := fx.Site(r.ResetID, "X1-AA-GATE")
	a := fx.Agent(r.ResetID, site.ID, "A", "X1-AA-1")
	b := fx.Agent(r.ResetID, site.ID, "B", "X1-AA-2")
	fab := fx.Requirement(r.ResetID, "FAB_MATS", 100)
	for et := int64(0); et <= 30; et += 5 {
		j := fx.Job(r.ResetID, resetStartMs+et*60_000, et)
		fx.AgentLog(j.ID, a.ID, 100+et, 1)
		fx.AgentLog(j.ID, b.ID, 500, 2)
		fx.SiteLog(j.ID, site.ID, false, map[int64]int64{fab.ID: et})
	}

	cfg := Config{
		Queries: service.NewQueryService(repository.NewResetRepository(db), repository.NewQueryRepository(db)),
		AppName: "st-leaderboard",
		Version: "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewHandler(cfg)
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestResetDates(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/reset-dates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[dto.ListResetDatesResponse](t, rec)
	if len(body.ResetDates) != 1 {
		t.Fatalf("resets = %+v", body.ResetDates)
	}
	got := body.ResetDates[0]
	if got.Reset != "2024-03-10" || got.FirstTs != "2024-03-10T00:00:00" || got.LatestTs != "2024-03-10T00:30:00" {
		t.Fatalf("reset = %+v", got)
	}
	if got.DurationMinutes != 30 || !got.IsOngoing {
		t.Fatalf("reset = %+v", got)
	}
}

func TestLeaderboard(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/leaderboard/2024-03-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode[dto.LeaderboardResponse](t, rec)
	if len(body.LeaderboardEntries) != 2 || body.LeaderboardEntries[0].AgentSymbol != "B" {
		t.Fatalf("entries = %+v", body.LeaderboardEntries)
	}
	if body.LeaderboardEntries[1].Credits != 130 {
		t.Fatalf("A credits = %d", body.LeaderboardEntries[1].Credits)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestHandler(t, nil)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown reset", http.MethodGet, "/api/leaderboard/2023-01-01", "", http.StatusNotFound},
		{"bad date", http.MethodGet, "/api/jump-gate-assignment/yesterday", "", http.StatusBadRequest},
		{"bad mode", http.MethodPost, "/api/history/2024-03-10", `{"agentSymbols":["A"],"selectionMode":"middle","eventTimeMinutesLte":10}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/history/2024-03-10", `{"agentSymbols":["A"],"selectionMode":"first","eventTimeMinutesLte":10,"extra":1}`, http.StatusBadRequest},
		{"negative window", http.MethodPost, "/api/history/2024-03-10", `{"agentSymbols":["A"],"selectionMode":"first","eventTimeMinutesLte":-1}`, http.StatusBadRequest},
		{"unknown api route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, tc.method, tc.target, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body=%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

type failingQueries struct {
	Queries
}

func (failingQueries) ListResets(ctx context.Context) ([]repository.ResetInfo, error) {
	return nil, errors.New("disk on fire")
}

func TestInternalErrorIsGeneric(t *testing.T) {
	h := NewHandler(Config{Queries: failingQueries{}})

	rec := doRequest(t, h, http.MethodGet, "/api/reset-dates", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "disk on fire") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestHistory(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/history/2024-03-10",
		`{"agentSymbols":["A"],"selectionMode":"last","eventTimeMinutesLte":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode[dto.HistoryResponse](t, rec)
	if body.Window.EventTimeMinutesGte != 20 || body.Window.EventTimeMinutesLte != 30 || body.Window.ResolutionMinutes != 5 {
		t.Fatalf("window = %+v", body.Window)
	}
	if len(body.AgentHistory) != 1 {
		t.Fatalf("agent history = %+v", body.AgentHistory)
	}
	got := body.AgentHistory[0].EventTimesMinutes
	if len(got) != 3 || got[0] != 20 || got[2] != 30 {
		t.Fatalf("event times = %v", got)
	}
	if len(body.ConstructionMaterialHistory) != 1 || body.ConstructionMaterialHistory[0].TradeSymbol != "FAB_MATS" {
		t.Fatalf("material history = %+v", body.ConstructionMaterialHistory)
	}
}

func TestConstructionEventOverviewNullableTimestamps(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/jump-gate-construction-event-overview/2024-03-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[dto.ConstructionEventOverviewResponse](t, rec)
	if len(body.EventEntries) != 1 {
		t.Fatalf("entries = %+v", body.EventEntries)
	}
	e := body.EventEntries[0]
	if e.TsFirstConstructionEvent == nil || *e.TsFirstConstructionEvent != "2024-03-10T00:05:00" {
		t.Fatalf("first event = %v", e.TsFirstConstructionEvent)
	}
	if e.TsLastConstructionEvent != nil {
		t.Fatalf("site is not complete: %v", *e.TsLastConstructionEvent)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "leaderboard_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	h := newTestHandler(t, func(cfg *Config) { cfg.Gatherer = reg })

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || !decode[dto.HealthDTO](t, rec).OK {
		t.Fatalf("health status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "leaderboard_test_total 1") {
		t.Fatalf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	h := newTestHandler(t, func(cfg *Config) {
		cfg.Status = func() dto.StatusDTO {
			return dto.StatusDTO{Collector: dto.CollectorStatusDTO{Enabled: true, Schedule: "*/5 * * * *"}}
		}
	})

	rec := doRequest(t, h, http.MethodGet, "/api/status", "")
	body := decode[dto.StatusDTO](t, rec)
	if body.App.Name != "st-leaderboard" || !body.Collector.Enabled || body.Collector.Schedule != "*/5 * * * *" {
		t.Fatalf("status = %+v", body)
	}
}

func TestSPAFallback(t *testing.T) {
	assets := fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"assets/app.js": {Data: []byte("console.log(1)")},
	}
	h := newTestHandler(t, func(cfg *Config) { cfg.Assets = assets })

	rec := doRequest(t, h, http.MethodGet, "/assets/app.js", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Fatalf("asset = %d %q", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, h, http.MethodGet, "/resets/2024-03-10/leaderboard", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
		t.Fatalf("fallback = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/reset-dates", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestSSE(t *testing.T) {
	hub := eventbus.NewHub()
	srv := httptest.NewServer(newTestHandler(t, func(cfg *Config) { cfg.Hub = hub }))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	if got := readEvent(); got != "ready" {
		t.Fatalf("first event = %q", got)
	}
	hub.Publish(eventbus.Event{Type: eventbus.TypeTickCompleted})
	if got := readEvent(); got != eventbus.TypeTickCompleted {
		t.Fatalf("event = %q", got)
	}
}
