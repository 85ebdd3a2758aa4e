package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"greekledger/internal/core"
	"greekledger/internal/middleware/auth"
	"greekledger/internal/middleware/ratelimit"
	"greekledger/internal/notify"
	"greekledger/internal/receipts"
	"greekledger/internal/services"
	"greekledger/internal/storage"
)

func noChannels(core.ChapterSettings) (notify.MessageSender, notify.MessageSender) {
	return notify.NewDisabled(core.ChannelEmail, "email off"), notify.NewDisabled(core.ChannelDiscord, "discord off")
}

type testEnv struct {
	srv       *Server
	repo      *storage.SQLiteRepository
	uploadDir string
}

func newTestEnv(t *testing.T, tweak func(*Deps)) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	uploadDir := t.TempDir()
	ledger := services.NewLedgerService(repo, nil)
	d := Deps{
		Store:         repo,
		Ledger:        ledger,
		Notifications: services.NewNotificationService(repo, noChannels),
		SMS:           services.NewSMSService(repo, nil, 0),
		Billing:       services.NewBillingService(repo, nil, ledger),
		Analytics:     services.NewAnalyticsService(repo),
		Cashflow:      services.NewCashflowService(repo),
		Scenarios:     services.NewScenarioService(repo),
		Receipts:      receipts.NewLocal(uploadDir),
		UploadDir:     uploadDir,
		FrontendURL:   "http://localhost:3000",
	}
	if tweak != nil {
		tweak(&d)
	}
	srv := NewServer(":0", d)
	t.Cleanup(srv.limiter.Stop)
	return &testEnv{srv: srv, repo: repo, uploadDir: uploadDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (e *testEnv) createMember(t *testing.T, first, email string, owed int64) core.Member {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/members", map[string]any{
		"firstName": first, "lastName": "Tester", "email": email, "duesOwed": owed,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create member: %d %s", rr.Code, rr.Body.String())
	}
	return decode[core.Member](t, rr)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := decode[map[string]string](t, rr)
	if body["status"] != "ok" {
		t.Errorf("status field %q", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
		t.Errorf("timestamp %q: %v", body["timestamp"], err)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	if rr := env.do(t, http.MethodGet, "/api/ready", nil); rr.Code != http.StatusOK {
		t.Errorf("ready status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPaymentLedgerEndToEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.createMember(t, "Ada", "ada@example.com", 500)
	if m.OutstandingBalance != core.Dollars(500) {
		t.Fatalf("outstanding after create = %s", m.OutstandingBalance)
	}

	rr := env.do(t, http.MethodPost, "/api/payments", map[string]any{
		"memberId": m.ID, "amount": 200, "semester": "Fall 2025", "paymentDate": "2025-09-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("first payment: %d %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/members/"+m.ID, nil)
	got := decode[core.Member](t, rr)
	if got.DuesPaid != core.Dollars(200) || got.OutstandingBalance != core.Dollars(300) {
		t.Fatalf("after 200: paid=%s outstanding=%s", got.DuesPaid, got.OutstandingBalance)
	}
	if len(got.Payments) != 1 {
		t.Errorf("member detail payments = %d, want 1", len(got.Payments))
	}

	rr = env.do(t, http.MethodPost, "/api/payments", map[string]any{
		"memberId": m.ID, "amount": "400", "semester": "Fall 2025",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("second payment: %d %s", rr.Code, rr.Body.String())
	}
	second := decode[core.Payment](t, rr)

	got = decode[core.Member](t, env.do(t, http.MethodGet, "/api/members/"+m.ID, nil))
	if got.DuesPaid != core.Dollars(600) || !got.OutstandingBalance.IsZero() {
		t.Fatalf("after 400: paid=%s outstanding=%s", got.DuesPaid, got.OutstandingBalance)
	}

	rr = env.do(t, http.MethodDelete, "/api/payments/"+second.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete payment: %d %s", rr.Code, rr.Body.String())
	}
	if msg := decode[MessageResponse](t, rr).Message; msg != "Payment deleted successfully" {
		t.Errorf("delete message %q", msg)
	}

	// Reversal adds the full amount back to the balance.
	got = decode[core.Member](t, env.do(t, http.MethodGet, "/api/members/"+m.ID, nil))
	if got.DuesPaid != core.Dollars(200) || got.OutstandingBalance != core.Dollars(400) {
		t.Fatalf("after delete: paid=%s outstanding=%s", got.DuesPaid, got.OutstandingBalance)
	}

	payments := decode[[]core.Payment](t, env.do(t, http.MethodGet, "/api/payments/member/"+m.ID, nil))
	if len(payments) != 1 || payments[0].Amount != core.Dollars(200) {
		t.Errorf("member payments %+v", payments)
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.createMember(t, "Bo", "bo@example.com", 100)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"unknown member", http.MethodGet, "/api/members/nope", nil, http.StatusNotFound, "not found"},
		{"zero payment", http.MethodPost, "/api/payments", map[string]any{"memberId": m.ID, "amount": 0, "semester": "Fall 2025"}, http.StatusBadRequest, "invalid amount"},
		{"malformed json", http.MethodPost, "/api/members", "{", http.StatusBadRequest, "malformed JSON"},
		{"empty body", http.MethodPost, "/api/events", "", http.StatusBadRequest, "request body is required"},
		{"duplicate email", http.MethodPost, "/api/members", map[string]any{"firstName": "X", "lastName": "Y", "email": "bo@example.com"}, http.StatusBadRequest, "already exists"},
		{"bad status filter", http.MethodGet, "/api/reimbursements?status=LOST", nil, http.StatusBadRequest, "invalid reimbursement status"},
		{"bad months", http.MethodGet, "/api/cashflow/projection?months=abc", nil, http.StatusBadRequest, "months must be a positive integer"},
		{"months over cap", http.MethodGet, "/api/cashflow/projection?months=61", nil, http.StatusBadRequest, "between 1 and 60"},
		{"zero months", http.MethodGet, "/api/cashflow/projection?months=0", nil, http.StatusBadRequest, "months must be a positive integer"},
		{"negative months", http.MethodGet, "/api/cashflow/projection?months=-3", nil, http.StatusBadRequest, "months must be a positive integer"},
		{"reminder for unknown member", http.MethodPost, "/api/notifications/send-reminder/nope", nil, http.StatusNotFound, "not found"},
		{"stripe disabled", http.MethodPost, "/api/stripe/create-payment-link", map[string]any{"memberId": m.ID, "amount": 10}, http.StatusBadRequest, "Stripe not configured"},
		{"webhook disabled", http.MethodPost, "/api/stripe/webhook", "{}", http.StatusBadRequest, "Stripe not configured"},
		{"sms disabled", http.MethodPost, "/api/sms/send-reminder/" + m.ID, nil, http.StatusBadRequest, "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			msg := decode[ErrorResponse](t, rr).Error
			if !strings.Contains(msg, tt.wantError) {
				t.Errorf("error %q does not contain %q", msg, tt.wantError)
			}
			if strings.Contains(msg, "validation failed") {
				t.Errorf("error %q leaks the validation prefix", msg)
			}
		})
	}
}

func TestSettingsNeverExposeSecrets(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPut, "/api/settings", map[string]any{
		"chapterName":     "Alpha Beta",
		"emailPassword":   "hunter2-secret",
		"discordBotToken": "bot-token-secret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	for _, rr := range []*httptest.ResponseRecorder{rr, env.do(t, http.MethodGet, "/api/settings", nil)} {
		body := rr.Body.String()
		if strings.Contains(body, "secret") || strings.Contains(body, "emailPassword") || strings.Contains(body, "discordBotToken") {
			t.Errorf("settings response leaks secrets: %s", body)
		}
		if !strings.Contains(body, `"chapterName":"Alpha Beta"`) {
			t.Errorf("settings response missing update: %s", body)
		}
	}

	stored, err := env.repo.GetSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored.EmailPassword != "hunter2-secret" {
		t.Errorf("password not persisted")
	}
}

func TestProjectionAndScenarios(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/cashflow/projection?months=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("projection: %d %s", rr.Code, rr.Body.String())
	}
	p := decode[core.Projection](t, rr)
	if len(p.Projection) != 3 {
		t.Errorf("projection months = %d, want 3", len(p.Projection))
	}
	if p.MinReserveThreshold != core.DefaultMinReserve {
		t.Errorf("threshold %s", p.MinReserveThreshold)
	}

	rr = env.do(t, http.MethodGet, "/api/cashflow/projection", nil)
	if p := decode[core.Projection](t, rr); len(p.Projection) != core.DefaultProjectionMonths {
		t.Errorf("default projection months = %d", len(p.Projection))
	}

	rr = env.do(t, http.MethodPost, "/api/scenarios/calculate", map[string]any{
		"memberCount": 50, "duesAmount": 500, "expectedExpenses": 20000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("calculate: %d %s", rr.Code, rr.Body.String())
	}
	sc := decode[core.Scenario](t, rr)
	want := core.Scenario{
		TotalDuesIncome:  core.Dollars(25000),
		ProjectedSurplus: core.Dollars(5000),
		MaxEventBudget:   core.Dollars(4250),
		PerMemberBudget:  core.Dollars(85),
	}
	if sc.TotalDuesIncome != want.TotalDuesIncome || sc.ProjectedSurplus != want.ProjectedSurplus ||
		sc.MaxEventBudget != want.MaxEventBudget || sc.PerMemberBudget != want.PerMemberBudget {
		t.Errorf("scenario %+v", sc)
	}

	rr = env.do(t, http.MethodPost, "/api/scenarios/preview", map[string]any{
		"memberCount": 10, "duesAmount": 600, "expectedExpenses": 1000,
	})
	preview := decode[core.ScenarioPreview](t, rr)
	if preview.Comparison.MemberCountDiff != 10 || preview.Comparison.DuesAmountDiff != core.Dollars(100) {
		t.Errorf("preview comparison %+v", preview.Comparison)
	}

	if list := decode[[]core.Scenario](t, env.do(t, http.MethodGet, "/api/scenarios", nil)); len(list) != 1 {
		t.Errorf("saved scenarios = %d, want 1", len(list))
	}
	if rr := env.do(t, http.MethodDelete, "/api/scenarios/"+sc.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("delete scenario: %d", rr.Code)
	}
}

func TestReimbursementWorkflowWithReceipt(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.createMember(t, "Cy", "cy@example.com", 0)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"memberId": m.ID, "amount": "42.50", "description": "Pizza", "category": "social",
	} {
		mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("receipt", "pizza receipt.pdf")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("%PDF-1.4 receipt"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reimbursements", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	rb := decode[core.Reimbursement](t, rr)
	if rb.Status != core.ReimbursementPending || rb.Amount != (core.Money{Cents: 4250}) || rb.Category != core.CategorySocial {
		t.Fatalf("reimbursement %+v", rb)
	}
	if !strings.HasPrefix(rb.ReceiptURL, "/uploads/receipts/") {
		t.Fatalf("receipt url %q", rb.ReceiptURL)
	}

	rr = env.do(t, http.MethodGet, rb.ReceiptURL, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "receipt") {
		t.Fatalf("serve receipt: %d", rr.Code)
	}

	transitions := []struct {
		status     string
		wantStatus int
	}{
		{"PAID", http.StatusBadRequest},
		{"approved", http.StatusOK},
		{"APPROVED", http.StatusBadRequest},
		{"PAID", http.StatusOK},
		{"DENIED", http.StatusBadRequest},
	}
	for _, tr := range transitions {
		rr := env.do(t, http.MethodPatch, "/api/reimbursements/"+rb.ID+"/status", map[string]string{"status": tr.status})
		if rr.Code != tr.wantStatus {
			t.Fatalf("-> %s: status=%d want %d (%s)", tr.status, rr.Code, tr.wantStatus, rr.Body.String())
		}
	}

	rr = env.do(t, http.MethodPut, "/api/reimbursements/"+rb.ID, map[string]any{"amount": 10})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("editing a paid claim: status=%d", rr.Code)
	}

	summary := decode[core.ReimbursementSummary](t, env.do(t, http.MethodGet, "/api/reimbursements/stats/summary", nil))
	if summary.Counts.Paid != 1 {
		t.Errorf("summary %+v", summary)
	}

	if rr := env.do(t, http.MethodDelete, "/api/reimbursements/"+rb.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: %d", rr.Code)
	}
	local := filepath.Join(env.uploadDir, strings.TrimPrefix(rb.ReceiptURL, "/uploads/"))
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Errorf("receipt file still present: %v", err)
	}
}

func TestEventsExpensesAndComparison(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/events", map[string]any{
		"name": "Formal", "date": "2025-04-12", "category": "SOCIAL", "plannedBudget": 1000,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", rr.Code, rr.Body.String())
	}
	ev := decode[core.Event](t, rr)
	if ev.Status != core.EventUpcoming {
		t.Errorf("default status %q", ev.Status)
	}

	for _, amount := range []int{300, 950} {
		rr := env.do(t, http.MethodPost, "/api/events/"+ev.ID+"/expenses", map[string]any{"description": "Venue", "amount": amount})
		if rr.Code != http.StatusCreated {
			t.Fatalf("add expense: %d %s", rr.Code, rr.Body.String())
		}
	}

	got := decode[core.Event](t, env.do(t, http.MethodGet, "/api/events/"+ev.ID, nil))
	if got.ActualSpent != core.Dollars(1250) || len(got.Expenses) != 2 {
		t.Fatalf("event after expenses: spent=%s expenses=%d", got.ActualSpent, len(got.Expenses))
	}

	cmp := decode[[]core.EventVariance](t, env.do(t, http.MethodGet, "/api/events/stats/comparison", nil))
	if len(cmp) != 1 || cmp[0].Variance != core.Dollars(250) {
		t.Errorf("comparison %+v", cmp)
	}

	if rr := env.do(t, http.MethodGet, "/api/events/stats/top-by-cost?limit=0", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status=%d", rr.Code)
	}
}

func TestRecurringCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/api/cashflow/recurring", map[string]any{
		"name": "House rent", "type": "expense", "amount": 1200, "frequency": "MONTHLY", "startDate": "2025-01-01",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	rt := decode[core.RecurringTransaction](t, rr)
	if !rt.IsActive || rt.Type != core.Expense {
		t.Fatalf("recurring %+v", rt)
	}

	rr = env.do(t, http.MethodPut, "/api/cashflow/recurring/"+rt.ID, map[string]any{"isActive": false})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	if list := decode[[]core.RecurringTransaction](t, env.do(t, http.MethodGet, "/api/cashflow/recurring", nil)); len(list) != 0 {
		t.Errorf("inactive transaction listed: %+v", list)
	}

	rr = env.do(t, http.MethodPut, "/api/cashflow/recurring/"+rt.ID, map[string]any{"endDate": "2024-01-01"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("end before start: status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/api/cashflow/recurring/"+rt.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("delete: %d", rr.Code)
	}
}

func TestDashboardAndMemberStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createMember(t, "Di", "di@example.com", 500)
	env.createMember(t, "Ed", "ed@example.com", 500)

	d := decode[core.Dashboard](t, env.do(t, http.MethodGet, "/api/analytics/dashboard", nil))
	if d.Members.Total != 2 || d.Members.Outstanding != core.Dollars(1000) {
		t.Errorf("dashboard members %+v", d.Members)
	}

	for _, path := range []string{
		"/api/members/stats/summary",
		"/api/analytics/spending-by-category",
		"/api/analytics/spending-trends?months=6",
		"/api/analytics/spending-per-member",
	} {
		if rr := env.do(t, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Errorf("%s: status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestCSVExports(t *testing.T) {
	env := newTestEnv(t, nil)
	m := env.createMember(t, "Flo", "flo@example.com", 500)
	env.do(t, http.MethodPost, "/api/payments", map[string]any{"memberId": m.ID, "amount": 125.5, "semester": "Spring 2025"})

	tests := []struct {
		path     string
		wantRows int
		wantCell string
	}{
		{"/api/exports/members.csv", 2, "374.50"},
		{"/api/exports/payments.csv", 2, "125.50"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
				t.Errorf("content type %q", ct)
			}
			records, err := csv.NewReader(rr.Body).ReadAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != tt.wantRows {
				t.Fatalf("rows=%d want %d", len(records), tt.wantRows)
			}
			if !strings.Contains(strings.Join(records[1], ","), tt.wantCell) {
				t.Errorf("row %v missing %s", records[1], tt.wantCell)
			}
		})
	}
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	authn := auth.New("test-signing-secret", "/api/health", "/api/stripe/webhook")
	env := newTestEnv(t, func(d *Deps) { d.Auth = authn })

	token, err := authn.Issue("treasurer", "treasurer@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		path       string
		headers    []string
		wantStatus int
	}{
		{"health is public", "/api/health", nil, http.StatusOK},
		{"missing token", "/api/members", nil, http.StatusUnauthorized},
		{"garbage token", "/api/members", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"valid token", "/api/members", []string{"Authorization", "Bearer " + token}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.path, nil, tt.headers...)
			if rr.Code != tt.wantStatus {
				t.Errorf("status=%d want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimitReturnsJSON429(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.RateLimit = ratelimit.Config{RequestsPerMinute: 2} })

	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodGet, "/api/health", nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, rr.Code)
		}
	}
	rr := env.do(t, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if msg := decode[ErrorResponse](t, rr).Error; !strings.Contains(msg, "Rate limit") {
		t.Errorf("error %q", msg)
	}
	if m := env.srv.Metrics(); m.RateLimited != 1 {
		t.Errorf("metrics %+v", m)
	}
}

func TestProbesAreRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/.env", "/wp-admin/install.php", "/api/../../etc/passwd"} {
		if rr := env.do(t, http.MethodGet, path, nil); rr.Code != http.StatusNotFound {
			t.Errorf("%s: status=%d", path, rr.Code)
		}
	}
	if env.srv.Metrics().Probes == 0 {
		t.Error("probes not counted")
	}
}
