package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/adapter/http/dto"
	"github.com/iho/txengine/internal/adapter/http/handler"
	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/infrastructure/metrics"
	"github.com/iho/txengine/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"GET /api/v1/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_ServesAccounts(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var account dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if account.Client != 2 || account.Total != "3.0000" {
		t.Fatalf("unexpected account %+v", account)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/3", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown client, got %d", rec.Code)
	}
}

func TestNewRouter_Reconciliation(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "reconciled" || resp.TotalAccounts != 2 || resp.RunID != "run-router" {
		t.Fatalf("unexpected reconciliation %+v", resp)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `txengine_http_requests_total{method="GET",path="/api/v1/accounts/:id",status="200"} 1`) {
		t.Fatalf("expected request counter in metrics output, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_WithoutMetrics(t *testing.T) {
	cfg := newRouterConfig(t)
	cfg.Metrics = nil
	cfg.Gatherer = nil
	router := NewRouter(cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be absent, got %d", rec.Code)
	}
}

func newRouterConfig(t *testing.T) RouterConfig {
	t.Helper()

	engine := usecase.NewEngine()
	journal := usecase.NewJournal()
	for _, tx := range []domain.Transaction{
		domain.NewDeposit(1, 1, decimal.RequireFromString("1.5")),
		domain.NewDeposit(2, 2, decimal.RequireFromString("3")),
	} {
		journal.Record(tx, engine.Apply(tx))
	}

	result := &usecase.RunResult{
		Report:  &usecase.Report{RunID: "run-router", Accounts: engine.Snapshot()},
		Journal: journal,
	}

	reg := prometheus.NewRegistry()
	accountUC := usecase.NewAccountUseCase(result, usecase.NewReconciliationUseCase())

	return RouterConfig{
		AccountHandler: handler.NewAccountHandler(accountUC),
		HealthHandler:  handler.NewHealthHandler("run-router", nil),
		Logger:         zerolog.Nop(),
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
	}
}
