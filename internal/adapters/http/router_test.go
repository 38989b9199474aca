package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/observability/metrics"
)

type queryServiceFake struct {
	result *domain.QueryResult
	err    error
}

func (f *queryServiceFake) Run(context.Context, string, []domain.Expense) (*domain.QueryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type importerFake struct {
	batch *domain.ExpenseBatch
	err   error
}

func (f *importerFake) Import(context.Context, []domain.Expense) (*domain.ExpenseBatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

type batchReaderFake struct {
	batch *domain.ExpenseBatch
	err   error
}

func (f *batchReaderFake) GetByID(context.Context, string) (*domain.ExpenseBatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

type storeFake struct {
	available bool
}

func (f *storeFake) Available() bool                                { return f.available }
func (f *storeFake) Upsert(context.Context, []domain.Expense) error { return nil }
func (f *storeFake) Query(context.Context, string, int, domain.FilterSet) ([]domain.Match, error) {
	return nil, nil
}

type routerFixture struct {
	query    *queryServiceFake
	importer *importerFake
	batches  *batchReaderFake
	store    *storeFake
}

func newTestHandler(f routerFixture) http.Handler {
	if f.query == nil {
		f.query = &queryServiceFake{result: &domain.QueryResult{Answer: "ok"}}
	}
	if f.importer == nil {
		f.importer = &importerFake{batch: &domain.ExpenseBatch{ID: "b1", Status: domain.BatchPending}}
	}
	if f.batches == nil {
		f.batches = &batchReaderFake{batch: &domain.ExpenseBatch{ID: "b1", Status: domain.BatchIndexed}}
	}
	if f.store == nil {
		f.store = &storeFake{available: true}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(
		f.query, f.importer, f.batches, f.store,
		true,
		[]string{"http://localhost:5173"},
		TrafficLimits{},
		metrics.NewHTTPServerMetrics("test"),
		logger,
	).Handler()
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(routerFixture{store: &storeFake{available: false}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status %v", body["status"])
	}
	if body["vector_store"] != false {
		t.Fatalf("expected vector_store false, got %v", body["vector_store"])
	}
	if body["hf_token_configured"] != true {
		t.Fatalf("expected hf_token_configured true, got %v", body["hf_token_configured"])
	}
}

func TestQueryEndpointSuccess(t *testing.T) {
	handler := newTestHandler(routerFixture{
		query: &queryServiceFake{result: &domain.QueryResult{
			Answer:      "You spent ₹500.00.",
			ContextUsed: "ctx",
			Metadata:    domain.FilterSet{UserID: "u1"},
			NumChunks:   2,
		}},
	})

	payload := `{"question": "total?", "expenses": [{"user_id":"u1","amount":"500","category":"Food","date":"2024-01-15"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if result.Answer != "You spent ₹500.00." || result.NumChunks != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestQueryEndpointInvalidJSON(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQueryEndpointMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := newTestHandler(routerFixture{query: &queryServiceFake{err: tc.err}})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"question":"q"}`)))
		if rec.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/query", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestImportEndpointAccepted(t *testing.T) {
	expenses := []domain.Expense{
		{UserID: "u1", Amount: decimal.NewFromInt(100), Category: "Food", Date: "2024-01-15"},
	}
	handler := newTestHandler(routerFixture{
		importer: &importerFake{batch: &domain.ExpenseBatch{ID: "b42", UserID: "u1", Expenses: expenses, Status: domain.BatchPending}},
	})

	payload := `{"expenses": [{"user_id":"u1","amount":"100","category":"Food","date":"2024-01-15"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses/import", strings.NewReader(payload)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var batch domain.ExpenseBatch
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if batch.ID != "b42" || batch.Status != domain.BatchPending {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestGetBatchByID(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/batches/b1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetBatchByIDNotFound(t *testing.T) {
	handler := newTestHandler(routerFixture{batches: &batchReaderFake{err: domain.ErrBatchNotFound}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/batches/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetBatchByIDMissingID(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/batches/", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Fatalf("expected allow-methods header, got %q", got)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	handler := newTestHandler(routerFixture{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}
