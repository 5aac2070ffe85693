package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nan5895/church-budget-app/internal/core"
	"github.com/nan5895/church-budget-app/internal/sheets"
	"github.com/nan5895/church-budget-app/internal/sheets/memory"
)

func newTestServer(t *testing.T, store sheets.Store, opts Options) *Server {
	t.Helper()
	srv := NewServer(":0", store, opts)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	budgets := []core.BudgetEntry{
		{Category: "악기/장비", MonthlyBudget: core.Money{Won: 300000}, Year: 2025, Month: core.AssignedMonth(7)},
		{Category: "악기/장비", MonthlyBudget: core.Money{Won: 300000}, Year: 2025, Month: core.AssignedMonth(8)},
		{Category: "식비/간식", MonthlyBudget: core.Money{Won: 100000}, Year: 2025, Month: core.AssignedMonth(8)},
	}
	for _, e := range budgets {
		if _, err := store.AppendBudget(ctx, e); err != nil {
			t.Fatalf("seed budget: %v", err)
		}
	}

	txs := []core.Transaction{
		{Date: core.NewDate(2025, 7, 14), Category: "악기/장비", Description: "기타 줄", Amount: core.Money{Won: 45000}, PaymentMethod: core.Card, SubmittedBy: "김찬양"},
		{Date: core.NewDate(2025, 8, 3), Category: "악기/장비", Description: "드럼 스틱", Amount: core.Money{Won: 27190}, PaymentMethod: core.Cash, SubmittedBy: "이예배"},
		{Date: core.NewDate(2025, 8, 10), Category: "식비/간식", Description: "연습 간식", Amount: core.Money{Won: 18000}, PaymentMethod: core.Card, SubmittedBy: "김찬양"},
	}
	for _, tx := range txs {
		if _, err := store.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	return store
}

func doRequest(srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	rr := doRequest(srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "찬양팀 예산") {
		t.Fatalf("index body missing heading: %s", rr.Body.String()[:200])
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	rr = doRequest(srv, http.MethodGet, "/nonexistent", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d, want 404", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	rr := doRequest(srv, http.MethodGet, "/healthz", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("Content-Security-Policy = %q", got)
	}
	if got := rr.Header().Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		form       url.Values
		wantStatus int
	}{
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			form:       nil,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "invalid amount",
			method: http.MethodPost,
			form: url.Values{
				"date": {"2025-08-12"}, "category": {"식비/간식"}, "description": {"간식"},
				"amount": {"abc"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing category",
			method: http.MethodPost,
			form: url.Values{
				"date": {"2025-08-12"}, "description": {"간식"},
				"amount": {"32000"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "invalid payment method",
			method: http.MethodPost,
			form: url.Values{
				"date": {"2025-08-12"}, "category": {"식비/간식"}, "description": {"간식"},
				"amount": {"32000"}, "payment_method": {"포인트"}, "submitted_by": {"박집사"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "invalid date",
			method: http.MethodPost,
			form: url.Values{
				"date": {"12/08/2025"}, "category": {"식비/간식"}, "description": {"간식"},
				"amount": {"32000"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "valid expense",
			method: http.MethodPost,
			form: url.Values{
				"date": {"2025-08-12"}, "category": {"식비/간식"}, "description": {"수련회 간식"},
				"amount": {"32000"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
			},
			wantStatus: http.StatusOK,
		},
	}

	srv := newTestServer(t, memory.New(), Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(srv, tt.method, "/transactions", tt.form)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d, want %d, body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestCreateTransactionTriggersAndListing(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	form := url.Values{
		"date": {"2025-08-12"}, "category": {"식비/간식"}, "description": {"수련회 간식"},
		"amount": {"32000"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
	}
	rr := doRequest(srv, http.MethodPost, "/transactions", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{`"transaction:created"`, `"form:reset"`, `"show-notification"`, `"year":2025`, `"month":8`} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %s: %s", want, trigger)
		}
	}
	if !strings.Contains(rr.Body.String(), "저장 완료") {
		t.Errorf("body missing confirmation: %s", rr.Body.String())
	}

	rr = doRequest(srv, http.MethodGet, "/ui/transactions", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "수련회 간식") {
		t.Errorf("list missing created transaction: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "₩32,000") {
		t.Errorf("list missing formatted amount: %s", rr.Body.String())
	}
}

func TestDashboardPartial(t *testing.T) {
	srv := newTestServer(t, seedStore(t), Options{})

	rr := doRequest(srv, http.MethodGet, "/ui/dashboard?year=2025&month=8", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	// 악기/장비: 300,000 August budget, 255,000 carryover from July,
	// 27,190 spent leaves 527,810.
	for _, want := range []string{"악기/장비", "₩527,810", "식비/간식", "₩82,000"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %s", want)
		}
	}
}

func TestDashboardEmptyState(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	rr := doRequest(srv, http.MethodGet, "/ui/dashboard?year=2030&month=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "예산이 설정되지 않았습니다") {
		t.Errorf("dashboard missing empty state: %s", rr.Body.String())
	}
}

func TestTransactionListFilters(t *testing.T) {
	srv := newTestServer(t, seedStore(t), Options{})

	tests := []struct {
		name    string
		query   string
		want    []string
		exclude []string
	}{
		{
			name:    "category filter",
			query:   "category=" + url.QueryEscape("악기/장비"),
			want:    []string{"기타 줄", "드럼 스틱"},
			exclude: []string{"연습 간식"},
		},
		{
			name:    "text search",
			query:   "q=" + url.QueryEscape("드럼"),
			want:    []string{"드럼 스틱"},
			exclude: []string{"기타 줄", "연습 간식"},
		},
		{
			name:    "search by submitter",
			query:   "q=" + url.QueryEscape("이예배"),
			want:    []string{"드럼 스틱"},
			exclude: []string{"기타 줄"},
		},
		{
			name:    "from date",
			query:   "from=2025-08-01",
			want:    []string{"드럼 스틱", "연습 간식"},
			exclude: []string{"기타 줄"},
		},
		{
			name:    "date range",
			query:   "from=2025-07-01&to=2025-07-31",
			want:    []string{"기타 줄"},
			exclude: []string{"드럼 스틱", "연습 간식"},
		},
		{
			name:    "invalid dates ignored",
			query:   "from=notadate&to=alsonot",
			want:    []string{"기타 줄", "드럼 스틱", "연습 간식"},
			exclude: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(srv, http.MethodGet, "/ui/transactions?"+tt.query, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			body := rr.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("list missing %s", want)
				}
			}
			for _, notWant := range tt.exclude {
				if strings.Contains(body, notWant) {
					t.Errorf("list should not contain %s", notWant)
				}
			}
		})
	}
}

func TestUpdateTransaction(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if _, err := store.AppendTransaction(ctx, core.Transaction{
		ID: "tx-1", Date: core.NewDate(2025, 8, 3), Category: "악기/장비",
		Description: "드럼 스틱", Amount: core.Money{Won: 27190},
		PaymentMethod: core.Cash, SubmittedBy: "이예배",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := newTestServer(t, store, Options{})

	form := url.Values{
		"id": {"tx-1"}, "category": {"악기/장비"}, "description": {"드럼 스틱 2세트"},
		"payment_method": {"카드"}, "submitted_by": {"이예배"},
	}
	rr := doRequest(srv, http.MethodPost, "/transactions/update", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(srv, http.MethodGet, "/ui/transactions", nil)
	if !strings.Contains(rr.Body.String(), "드럼 스틱 2세트") {
		t.Errorf("list missing updated description")
	}
	// Amount is immutable through this endpoint.
	if !strings.Contains(rr.Body.String(), "₩27,190") {
		t.Errorf("amount changed unexpectedly")
	}

	form.Set("id", "ghost")
	rr = doRequest(srv, http.MethodPost, "/transactions/update", form)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d, want 404", rr.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if _, err := store.AppendTransaction(ctx, core.Transaction{
		ID: "tx-1", Date: core.NewDate(2025, 8, 3), Category: "악기/장비",
		Description: "드럼 스틱", Amount: core.Money{Won: 27190},
		PaymentMethod: core.Cash, SubmittedBy: "이예배",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := newTestServer(t, store, Options{})

	rr := doRequest(srv, http.MethodPost, "/transactions/delete", url.Values{"id": {"tx-1"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"transaction:deleted"`) {
		t.Errorf("HX-Trigger missing delete event")
	}

	rr = doRequest(srv, http.MethodPost, "/transactions/delete", url.Values{"id": {"tx-1"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status=%d, want 404", rr.Code)
	}

	rr = doRequest(srv, http.MethodPost, "/transactions/delete", url.Values{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing id status=%d, want 400", rr.Code)
	}
}

func TestDeleteTransactionJSONBody(t *testing.T) {
	store := memory.New()
	if _, err := store.AppendTransaction(context.Background(), core.Transaction{
		ID: "tx-2", Date: core.NewDate(2025, 8, 5), Category: "기타",
		Description: "주차비", Amount: core.Money{Won: 3000},
		PaymentMethod: core.Cash, SubmittedBy: "김찬양",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := newTestServer(t, store, Options{})

	req := httptest.NewRequest(http.MethodDelete, "/transactions/delete", strings.NewReader(`{"id":"tx-2"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("json delete status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestBudgetCreateAndList(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	form := url.Values{
		"category": {"음향장비"}, "year": {"2025"}, "month": {"9"},
		"amount": {"150000"}, "notes": {"믹서 교체 적립"},
	}
	rr := doRequest(srv, http.MethodPost, "/budgets", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"budget:saved"`) {
		t.Errorf("HX-Trigger missing budget:saved")
	}

	rr = doRequest(srv, http.MethodGet, "/ui/budgets?year=2025", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"음향장비", "₩150,000", "9월", "믹서 교체 적립"} {
		if !strings.Contains(body, want) {
			t.Errorf("budget list missing %s", want)
		}
	}

	// Invalid rows are rejected before touching the store.
	for name, bad := range map[string]url.Values{
		"missing month": {"category": {"음향장비"}, "year": {"2025"}, "amount": {"150000"}},
		"month 13":      {"category": {"음향장비"}, "year": {"2025"}, "month": {"13"}, "amount": {"150000"}},
		"bad amount":    {"category": {"음향장비"}, "year": {"2025"}, "month": {"9"}, "amount": {"많이"}},
	} {
		rr := doRequest(srv, http.MethodPost, "/budgets", bad)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: status=%d, want 422", name, rr.Code)
		}
	}
}

func TestBudgetUpdateAndDelete(t *testing.T) {
	store := memory.New()
	if _, err := store.AppendBudget(context.Background(), core.BudgetEntry{
		ID: "b-1", Category: "음향장비", MonthlyBudget: core.Money{Won: 150000},
		Year: 2025, Month: core.AssignedMonth(9),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := newTestServer(t, store, Options{})

	form := url.Values{
		"id": {"b-1"}, "category": {"음향장비"}, "year": {"2025"}, "month": {"10"},
		"amount": {"200000"}, "notes": {"이월 조정"},
	}
	rr := doRequest(srv, http.MethodPost, "/budgets/update", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doRequest(srv, http.MethodGet, "/ui/budgets?year=2025", nil)
	if !strings.Contains(rr.Body.String(), "₩200,000") {
		t.Errorf("list missing updated amount")
	}

	form.Set("id", "ghost")
	rr = doRequest(srv, http.MethodPost, "/budgets/update", form)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d, want 404", rr.Code)
	}

	rr = doRequest(srv, http.MethodPost, "/budgets/delete", url.Values{"id": {"b-1"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doRequest(srv, http.MethodPost, "/budgets/delete", url.Values{"id": {"b-1"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status=%d, want 404", rr.Code)
	}
}

func TestBudgetMigrate(t *testing.T) {
	store := memory.New()
	if _, err := store.AppendBudget(context.Background(), core.BudgetEntry{
		ID: "b-legacy", Category: "기타", MonthlyBudget: core.Money{Won: 50000},
		Year: 2025, Month: core.UnassignedMonth(),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := newTestServer(t, store, Options{})

	rr := doRequest(srv, http.MethodGet, "/ui/budgets?year=2025", nil)
	if !strings.Contains(rr.Body.String(), "기타") {
		t.Fatalf("legacy row not listed")
	}

	rr = doRequest(srv, http.MethodPost, "/budgets/migrate", url.Values{"id": {"b-legacy"}, "month": {"3"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("migrate status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "3월로 이동") {
		t.Errorf("HX-Trigger missing migration notice: %s", rr.Header().Get("HX-Trigger"))
	}

	rr = doRequest(srv, http.MethodGet, "/ui/budgets?year=2025", nil)
	if !strings.Contains(rr.Body.String(), "3월") {
		t.Errorf("migrated row missing month")
	}

	rr = doRequest(srv, http.MethodPost, "/budgets/migrate", url.Values{"id": {"ghost"}, "month": {"3"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id status=%d, want 404", rr.Code)
	}

	rr = doRequest(srv, http.MethodPost, "/budgets/migrate", url.Values{"id": {"b-legacy"}, "month": {"0"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("month 0 status=%d, want 422", rr.Code)
	}
}

func TestExcelReportDownload(t *testing.T) {
	srv := newTestServer(t, seedStore(t), Options{})

	rr := doRequest(srv, http.MethodGet, "/reports/excel", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("report status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "report.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}
	body := rr.Body.Bytes()
	if len(body) == 0 {
		t.Fatal("empty report body")
	}
	if body[0] != 'P' || body[1] != 'K' {
		t.Errorf("body is not a zip archive: % x", body[:4])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{})

	form := url.Values{
		"date": {"2025-08-12"}, "category": {"식비/간식"}, "description": {"간식"},
		"amount": {"5000"}, "payment_method": {"현금"}, "submitted_by": {"박집사"},
	}
	if rr := doRequest(srv, http.MethodPost, "/transactions", form); rr.Code != http.StatusOK {
		t.Fatalf("create status=%d", rr.Code)
	}

	rr := doRequest(srv, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"http_requests_total",
		"transactions_total 1",
		"cache_hits_total",
		"cache_misses_total",
		"uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestRateLimitSparesReads(t *testing.T) {
	srv := newTestServer(t, memory.New(), Options{RateLimitPerMinute: 2})

	for i := 0; i < 5; i++ {
		if rr := doRequest(srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
			t.Fatalf("read %d throttled: status=%d", i, rr.Code)
		}
	}

	var last int
	for i := 0; i < 3; i++ {
		rr := doRequest(srv, http.MethodPost, "/transactions/delete", url.Values{"id": {"nope"}})
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third mutation status=%d, want 429", last)
	}
}

func TestCacheInvalidationAfterWrite(t *testing.T) {
	store := seedStore(t)
	srv := newTestServer(t, store, Options{})

	rr := doRequest(srv, http.MethodGet, "/ui/dashboard?year=2025&month=8", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}

	form := url.Values{
		"date": {"2025-08-20"}, "category": {"식비/간식"}, "description": {"추가 간식"},
		"amount": {"10000"}, "payment_method": {"카드"}, "submitted_by": {"박집사"},
	}
	if rr := doRequest(srv, http.MethodPost, "/transactions", form); rr.Code != http.StatusOK {
		t.Fatalf("create status=%d", rr.Code)
	}

	// 식비/간식 August: 100,000 budget, 18,000 + 10,000 spent.
	rr = doRequest(srv, http.MethodGet, "/ui/dashboard?year=2025&month=8", nil)
	if !strings.Contains(rr.Body.String(), "₩72,000") {
		t.Errorf("dashboard served stale remaining after write")
	}
}
