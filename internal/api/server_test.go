package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/resilience"
	"github.com/sells-group/phone-insight/internal/store"
	"github.com/sells-group/phone-insight/pkg/trestle"
)

type fakeEnricher struct {
	mu     sync.Mutex
	phones []string
	run    func(ctx context.Context, phone string) *model.CombinedResult
}

func (f *fakeEnricher) Run(ctx context.Context, phone string) *model.CombinedResult {
	f.mu.Lock()
	f.phones = append(f.phones, phone)
	f.mu.Unlock()
	if f.run != nil {
		return f.run(ctx, phone)
	}
	report := model.NewReport()
	_ = report.Finish(model.StatusNoBusinessFound, model.WithMessage("none"))
	return &model.CombinedResult{TrestleData: &trestle.CallerIDResponse{}, SalesInsightReport: report}
}

type fakeStore struct {
	runs    map[string]*model.Run
	pingErr error
	listErr error
	filter  store.RunFilter
}

func (f *fakeStore) CreateRun(context.Context, string) (*model.Run, error) { return nil, nil }
func (f *fakeStore) CompleteRun(context.Context, string, *model.CombinedResult, float64) error {
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, id string) (*model.Run, error) {
	if r, ok := f.runs[id]; ok {
		return r, nil
	}
	if id == "broken" {
		return nil, errors.New("db down")
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	f.filter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Run
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) Ping(context.Context) error    { return f.pingErr }
func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestEnrich_Success(t *testing.T) {
	enricher := &fakeEnricher{}
	h := NewServer(enricher).Handler()

	rr := do(t, h, http.MethodPost, "/api/enrich", `{"phone": " (775) 555-0123 "}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, []string{" (775) 555-0123 "}, enricher.phones)

	body := decode[map[string]json.RawMessage](t, rr)
	assert.Contains(t, body, "trestleData")
	assert.Contains(t, body, "salesInsightReport")

	var report model.SalesInsightReport
	require.NoError(t, json.Unmarshal(body["salesInsightReport"], &report))
	assert.Equal(t, model.StatusNoBusinessFound, report.Status)
}

func TestEnrich_ErrorStatusIsStill200(t *testing.T) {
	enricher := &fakeEnricher{run: func(context.Context, string) *model.CombinedResult {
		report := model.NewReport()
		_ = report.Finish(model.StatusError, model.WithError("Failed to retrieve initial data from Trestle.", "Data source error: Service Unavailable"))
		return &model.CombinedResult{SalesInsightReport: report}
	}}
	h := NewServer(enricher).Handler()

	rr := do(t, h, http.MethodPost, "/api/enrich", `{"phone":"7755550123"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"trestleData":null`)
	assert.Contains(t, rr.Body.String(), `"status":"error"`)
}

func TestEnrich_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ErrorResponse
	}{
		{"not json", `phone=7755550123`, ErrorResponse{Error: MsgProcessingError, Details: MsgInvalidFormat}},
		{"truncated json", `{"phone": "77`, ErrorResponse{Error: MsgProcessingError, Details: MsgInvalidFormat}},
		{"empty body", ``, ErrorResponse{Error: MsgProcessingError, Details: MsgInvalidFormat}},
		{"missing phone", `{"number": "7755550123"}`, ErrorResponse{Error: MsgPhoneRequired}},
		{"numeric phone", `{"phone": 7755550123}`, ErrorResponse{Error: MsgPhoneRequired}},
		{"blank phone", `{"phone": "   "}`, ErrorResponse{Error: MsgPhoneRequired}},
		{"null phone", `{"phone": null}`, ErrorResponse{Error: MsgPhoneRequired}},
		{"array body", `["7755550123"]`, ErrorResponse{Error: MsgPhoneRequired}},
		{"null body", `null`, ErrorResponse{Error: MsgPhoneRequired}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher := &fakeEnricher{}
			rr := do(t, NewServer(enricher).Handler(), http.MethodPost, "/api/enrich", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.want, decode[ErrorResponse](t, rr))
			assert.Empty(t, enricher.phones)
		})
	}
}

func TestEnrich_BodyTooLarge(t *testing.T) {
	big := `{"phone":"7755550123","pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rr := do(t, NewServer(&fakeEnricher{}).Handler(), http.MethodPost, "/api/enrich", big)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgInvalidFormat, decode[ErrorResponse](t, rr).Details)
}

func TestEnrich_PanicBecomes500(t *testing.T) {
	enricher := &fakeEnricher{run: func(context.Context, string) *model.CombinedResult {
		panic(errors.New("boom"))
	}}

	rr := do(t, NewServer(enricher).Handler(), http.MethodPost, "/api/enrich", `{"phone":"7755550123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, ErrorResponse{Error: MsgProcessingError, Details: "boom"}, decode[ErrorResponse](t, rr))
}

func TestEnrich_NilResultBecomes500(t *testing.T) {
	enricher := &fakeEnricher{run: func(context.Context, string) *model.CombinedResult { return nil }}

	rr := do(t, NewServer(enricher).Handler(), http.MethodPost, "/api/enrich", `{"phone":"7755550123"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, MsgProcessingError, decode[ErrorResponse](t, rr).Error)
}

func TestEnrichInfo(t *testing.T) {
	rr := do(t, NewServer(&fakeEnricher{}).Handler(), http.MethodGet, "/api/enrich", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, `API endpoint active. Use POST with { "phone": "number" }.`, body["message"])
}

func TestEnrich_MethodNotAllowed(t *testing.T) {
	rr := do(t, NewServer(&fakeEnricher{}).Handler(), http.MethodDelete, "/api/enrich", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := NewServer(&fakeEnricher{}, WithAllowedOrigins([]string{"https://app.example.com"})).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/enrich", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID_Propagated(t *testing.T) {
	enricher := &fakeEnricher{run: func(ctx context.Context, _ string) *model.CombinedResult {
		return &model.CombinedResult{SalesInsightReport: model.NewReport()}
	}}
	h := NewServer(enricher).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/enrich", strings.NewReader(`{"phone":"7755550123"}`))
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTimeout_CancelsPipelineContext(t *testing.T) {
	enricher := &fakeEnricher{run: func(ctx context.Context, _ string) *model.CombinedResult {
		<-ctx.Done()
		report := model.NewReport()
		_ = report.Finish(model.StatusError, model.WithError("x", "Data source error: Request timed out"))
		return &model.CombinedResult{SalesInsightReport: report}
	}}
	h := NewServer(enricher, WithTimeout(20*time.Millisecond)).Handler()

	done := make(chan struct{})
	go func() {
		do(t, h, http.MethodPost, "/api/enrich", `{"phone":"7755550123"}`)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not finish after timeout")
	}
}

func TestHealth(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		rr := do(t, NewServer(&fakeEnricher{}).Handler(), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok", decode[HealthResponse](t, rr).Status)
	})

	t.Run("store down", func(t *testing.T) {
		st := &fakeStore{pingErr: errors.New("db down")}
		rr := do(t, NewServer(&fakeEnricher{}, WithStore(st)).Handler(), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		resp := decode[HealthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Store)
	})

	t.Run("open circuit", func(t *testing.T) {
		cfg := resilience.DefaultCircuitBreakerConfig()
		cfg.FailureThreshold = 1
		guards := resilience.NewGuards(cfg, 0)
		_, _ = resilience.Call(context.Background(), guards.Get("trestle"), func(context.Context) (int, error) {
			return 0, &trestle.APIError{StatusCode: 502}
		})

		rr := do(t, NewServer(&fakeEnricher{}, WithStore(&fakeStore{}), WithGuards(guards)).Handler(), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decode[HealthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "ok", resp.Store)
		assert.Equal(t, map[string]string{"trestle": "open"}, resp.Circuits)
	})
}

func TestRuns_NotMountedWithoutStore(t *testing.T) {
	rr := do(t, NewServer(&fakeEnricher{}).Handler(), http.MethodGet, "/api/runs", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListRuns(t *testing.T) {
	st := &fakeStore{runs: map[string]*model.Run{
		"run-1": {ID: "run-1", Phone: "7755550123", Status: model.RunStatusComplete, ReportStatus: model.StatusSuccess},
	}}
	h := NewServer(&fakeEnricher{}, WithStore(st)).Handler()

	rr := do(t, h, http.MethodGet, "/api/runs?status=complete&report_status=success&phone=7755550123&limit=5&offset=10&since=2025-01-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rr.Code)

	runs := decode[[]model.Run](t, rr)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)

	assert.Equal(t, model.RunStatusComplete, st.filter.Status)
	assert.Equal(t, model.StatusSuccess, st.filter.ReportStatus)
	assert.Equal(t, "7755550123", st.filter.Phone)
	assert.Equal(t, 5, st.filter.Limit)
	assert.Equal(t, 10, st.filter.Offset)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), st.filter.CreatedAfter)
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	rr := do(t, NewServer(&fakeEnricher{}, WithStore(&fakeStore{})).Handler(), http.MethodGet, "/api/runs", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListRuns_BadQuery(t *testing.T) {
	h := NewServer(&fakeEnricher{}, WithStore(&fakeStore{})).Handler()

	for _, q := range []string{"limit=abc", "limit=-1", "offset=x", "since=yesterday"} {
		rr := do(t, h, http.MethodGet, "/api/runs?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestListRuns_StoreError(t *testing.T) {
	rr := do(t, NewServer(&fakeEnricher{}, WithStore(&fakeStore{listErr: errors.New("db down")})).Handler(), http.MethodGet, "/api/runs", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetRun(t *testing.T) {
	st := &fakeStore{runs: map[string]*model.Run{
		"run-1": {ID: "run-1", Phone: "7755550123", Status: model.RunStatusRunning},
	}}
	h := NewServer(&fakeEnricher{}, WithStore(st)).Handler()

	rr := do(t, h, http.MethodGet, "/api/runs/run-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "run-1", decode[model.Run](t, rr).ID)

	rr = do(t, h, http.MethodGet, "/api/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "run not found", decode[ErrorResponse](t, rr).Error)

	rr = do(t, h, http.MethodGet, "/api/runs/broken", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
