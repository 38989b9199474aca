package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/core/ports"
	"github.com/budgetbot/backend/internal/observability/metrics"
)

const serviceName = "budgetbot-api"

// TrafficLimits bounds how much load the API accepts before shedding.
// Zero values disable the corresponding limit.
type TrafficLimits struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	queryUC  ports.ExpenseQueryService
	importer ports.ExpenseImporter
	batches  ports.BatchReader
	store    ports.VectorStore

	tokenConfigured bool
	allowedOrigins  []string
	limits          TrafficLimits
	metrics         *metrics.HTTPServerMetrics
	logger          *slog.Logger
}

func NewRouter(
	queryUC ports.ExpenseQueryService,
	importer ports.ExpenseImporter,
	batches ports.BatchReader,
	store ports.VectorStore,
	tokenConfigured bool,
	allowedOrigins []string,
	limits TrafficLimits,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		queryUC:         queryUC,
		importer:        importer,
		batches:         batches,
		store:           store,
		tokenConfigured: tokenConfigured,
		allowedOrigins:  allowedOrigins,
		limits:          limits,
		metrics:         m,
		logger:          logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", rt.health)
	mux.HandleFunc("/api/query", rt.query)
	mux.HandleFunc("/api/expenses/import", rt.importExpenses)
	mux.HandleFunc("/api/expenses/batches/", rt.getBatchByID)
	mux.Handle("/metrics", rt.metrics.Handler())

	wait := rt.limits.BackpressureWait
	if wait <= 0 {
		wait = 100 * time.Millisecond
	}

	var handler http.Handler = mux
	handler = corsMiddleware(rt.allowedOrigins, handler)
	handler = backpressureMiddleware(handler, rt.limits.MaxInFlight, wait)
	handler = rateLimitMiddleware(handler, rt.limits.RateLimitRPS, rt.limits.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = rt.metrics.Middleware(serviceName, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"vector_store":        rt.store.Available(),
		"hf_token_configured": rt.tokenConfigured,
	})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string           `json:"question"`
		Expenses []domain.Expense `json:"expenses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	result, err := rt.queryUC.Run(r.Context(), req.Question, req.Expenses)
	if err != nil {
		rt.metrics.RecordQuery(serviceName, "error", 0, time.Since(start))
		rt.logger.Warn("query failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.metrics.RecordQuery(serviceName, "success", result.NumChunks, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) importExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Expenses []domain.Expense `json:"expenses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	batch, err := rt.importer.Import(r.Context(), req.Expenses)
	if err != nil {
		rt.metrics.RecordImport(serviceName, "error")
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.metrics.RecordImport(serviceName, "accepted")
	writeJSON(w, http.StatusAccepted, batch)
}

func (rt *Router) getBatchByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/expenses/batches/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch id is required"})
		return
	}

	batch, err := rt.batches.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
