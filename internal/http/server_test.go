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

	"github.com/golang-jwt/jwt/v5"

	"ebudget/internal/core"
	"ebudget/internal/datastore"
	"ebudget/internal/datastore/memory"
	"ebudget/internal/format"
	"ebudget/internal/log"
	"ebudget/internal/middleware/auth"
	"ebudget/internal/projection"
	"ebudget/internal/services"
)

var fixedNow = func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, opts Options) (*Server, *services.LedgerService) {
	t.Helper()
	ledger := services.NewLedgerService(memory.New([]string{"Income", "Expense"}, []string{"Pending", "Cleared"}), services.WithLogger(log.Discard()))
	opts.Logger = log.Discard()
	opts.Now = fixedNow
	srv := NewServer(":0", ledger, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ledger
}

func do(t *testing.T, srv *Server, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(auth.UserHeader, user)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rr := do(t, srv, http.MethodGet, path, "", ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	failing, _ := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})
	if rr := do(t, failing, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestRequiresUser(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/goals", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Error != CodeUnauthorized {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestBearerToken(t *testing.T) {
	srv, _ := newTestServer(t, Options{JWTSecret: "s3cret"})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/api/goals", "u1", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("header identity must be ignored when tokens are required, got %d", rr.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/categories", "u1", `{"name":"Food","type":"expense","color":"#00ff00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", rr.Code, rr.Body.String())
	}
	cat := decode[core.Category](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/transactions", "u1",
		`{"title":"Lunch","amount":"12.50","date":"2024-03-01","categoryId":"`+cat.ID+`","type":"expense","status":"cleared"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction: %d %s", rr.Code, rr.Body.String())
	}
	tx := decode[core.Transaction](t, rr)
	if tx.Category != "Food" || tx.TypeKey != "expense" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions/"+tx.ID, "u1", `{"title":"Dinner","amount":40,"date":"2024-03-02","type":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update transaction: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?q=din&sort=amount&dir=asc", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	table := decode[TransactionTable](t, rr)
	if table.Total != 1 || table.Items[0].Title != "Dinner" || table.Sort.Direction != "asc" {
		t.Fatalf("unexpected table %+v", table)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/categories/"+cat.ID, "u1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("category is no longer referenced after the update, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, "u1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete transaction: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, "u1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d", rr.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	srv, ledger := newTestServer(t, Options{})
	ctx := context.Background()

	rr := do(t, srv, http.MethodPost, "/api/categories", "u1", `{"name":"Rent","type":"expense"}`)
	cat := decode[core.Category](t, rr)
	do(t, srv, http.MethodPost, "/api/transactions", "u1", `{"title":"May","amount":900,"date":"2024-05-01","categoryId":"`+cat.ID+`","type":"expense"}`)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"validation", http.MethodPost, "/api/transactions", `{"title":"x","date":"2024-01-01","type":"gift"}`, http.StatusUnprocessableEntity, CodeValidation},
		{"malformed json", http.MethodPost, "/api/goals", `{"title":`, http.StatusBadRequest, CodeBadRequest},
		{"empty body", http.MethodPost, "/api/goals", ``, http.StatusBadRequest, CodeBadRequest},
		{"category in use", http.MethodDelete, "/api/categories/" + cat.ID, "", http.StatusConflict, CodeConflict},
		{"unknown entity", http.MethodDelete, "/api/widgets/1", "", http.StatusNotFound, CodeNotFound},
		{"missing goal", http.MethodPost, "/api/goals/nope/adjust", `{"amount":5}`, http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, "u1", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			if body := decode[ErrorBody](t, rr); body.Error != tt.code {
				t.Fatalf("code = %q, want %q", body.Error, tt.code)
			}
		})
	}

	if snap, _ := ledger.Snapshot(ctx, "u1"); len(snap.Categories) != 1 {
		t.Fatalf("category in use must survive")
	}
}

func TestAdjustments(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	goal := decode[core.Goal](t, do(t, srv, http.MethodPost, "/api/goals", "u1", `{"title":"Bike","target":500,"saved":"100"}`))
	rr := do(t, srv, http.MethodPost, "/api/goals/"+goal.ID+"/adjust", "u1", `{"amount":"-150"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("adjust: %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[core.Goal](t, rr); !got.Saved.IsZero() {
		t.Fatalf("saved never goes below zero, got %s", got.Saved)
	}

	budget := decode[core.Budget](t, do(t, srv, http.MethodPost, "/api/budgets", "u1", `{"title":"Groceries","limit":200}`))
	rr = do(t, srv, http.MethodPost, "/api/budgets/"+budget.ID+"/spend", "u1", `{"amount":75}`)
	if got := decode[core.Budget](t, rr); got.Spent.String() != "75" {
		t.Fatalf("spent = %s", got.Spent)
	}

	budgets := decode[[]core.Budget](t, do(t, srv, http.MethodGet, "/api/budgets", "u1", ""))
	if len(budgets) != 1 {
		t.Fatalf("expected one budget, got %d", len(budgets))
	}
}

type budgetless struct{ datastore.Store }

func TestBudgetsUnsupported(t *testing.T) {
	ledger := services.NewLedgerService(budgetless{memory.New(nil, nil)}, services.WithLogger(log.Discard()))
	srv := NewServer(":0", ledger, Options{Logger: log.Discard()})
	defer srv.Shutdown(context.Background())

	if rr := do(t, srv, http.MethodGet, "/api/budgets", "u1", ""); rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
}

type brokenLedger struct{ *services.LedgerService }

func (brokenLedger) Snapshot(context.Context, string) (*projection.Snapshot, error) {
	return nil, errors.New("load operations: connection reset")
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	ledger := brokenLedger{services.NewLedgerService(memory.New(nil, nil), services.WithLogger(log.Discard()))}
	srv := NewServer(":0", ledger, Options{Logger: log.Discard()})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/transactions", "u1", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection reset") {
		t.Fatalf("backend details must not leak: %s", rr.Body.String())
	}
}

func TestReports(t *testing.T) {
	srv, _ := newTestServer(t, Options{Format: format.Options{Locale: "en-US", Currency: "USD"}})
	for _, body := range []string{
		`{"title":"Salary","amount":2000,"date":"2024-02-01","type":"income"}`,
		`{"title":"Rent","amount":800,"date":"2024-02-03","type":"expense"}`,
		`{"title":"Salary","amount":2000,"date":"2024-03-01","type":"income"}`,
		`{"title":"Rent","amount":800,"date":"2024-03-03","type":"expense"}`,
		`{"title":"Shoes","amount":120,"date":"2024-03-04","type":"expense"}`,
	} {
		if rr := do(t, srv, http.MethodPost, "/api/transactions", "u1", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed: %d %s", rr.Code, rr.Body.String())
		}
	}

	series := decode[SeriesResponse](t, do(t, srv, http.MethodGet, "/api/reports/series?grouping=monthly&type=expense", "u1", ""))
	if len(series.Buckets) != 2 || series.Buckets[1].Expense.String() != "920" || series.Totals.Count != 3 {
		t.Fatalf("unexpected series %+v", series)
	}

	insights := decode[InsightsResponse](t, do(t, srv, http.MethodGet, "/api/reports/insights?n=2", "u1", ""))
	if len(insights.Top) != 2 || insights.BiggestExpense == nil || insights.BiggestExpense.Title != "Rent" {
		t.Fatalf("unexpected insights %+v", insights)
	}

	for _, path := range []string{"/api/reports/categories", "/api/reports/status", "/api/reports/yearly", "/api/reports/net"} {
		rr := do(t, srv, http.MethodGet, path, "u1", "")
		if rr.Code != http.StatusOK || !bytes.HasPrefix(bytes.TrimSpace(rr.Body.Bytes()), []byte("[")) {
			t.Fatalf("%s: %d %s", path, rr.Code, rr.Body.String())
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/overview", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("overview: %d %s", rr.Code, rr.Body.String())
	}
	ov := decode[OverviewResponse](t, rr)
	if ov.Primary.Expense.String() != "920" || ov.Previous.Expense.String() != "800" {
		t.Fatalf("overview defaults to the current month against the previous one: %+v", ov.Overview)
	}
	if len(ov.Months) != 2 || ov.Formatted["expense"].Value == "" {
		t.Fatalf("unexpected overview extras: months=%v formatted=%v", ov.Months, ov.Formatted)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "abc123" {
		t.Fatalf("request id not echoed: %v", rr.Header())
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing: %v", rr.Header())
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitRPM: 2})
	for i := range 2 {
		if rr := do(t, srv, http.MethodGet, "/api/goals", "u1", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/api/goals", "u1", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d %v", rr.Code, rr.Header())
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("health checks are not rate limited, got %d", rr.Code)
	}
}
