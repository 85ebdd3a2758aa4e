package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"greekledger/internal/core"
	"greekledger/internal/log"
	"greekledger/internal/middleware/auth"
	"greekledger/internal/middleware/ratelimit"
	"greekledger/internal/middleware/security"
	"greekledger/internal/middleware/trace"
	"greekledger/internal/receipts"
	"greekledger/internal/services"
	"greekledger/internal/storage"
)

// Store is the CRUD surface the handlers reach directly. Anything with side
// effects beyond one row goes through a service.
type Store interface {
	Ping(ctx context.Context) error

	CreateMember(ctx context.Context, m *core.Member) error
	GetMember(ctx context.Context, id string) (core.Member, error)
	GetMemberDetail(ctx context.Context, id string) (core.Member, error)
	ListMembers(ctx context.Context, f storage.MemberFilter) ([]core.Member, error)
	UpdateMember(ctx context.Context, id string, u core.MemberUpdate) (core.Member, error)
	DeleteMember(ctx context.Context, id string) error

	GetPayment(ctx context.Context, id string) (core.Payment, error)
	UpdatePayment(ctx context.Context, id string, u core.PaymentUpdate) (core.Payment, error)
	ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error)

	CreateReimbursement(ctx context.Context, rb *core.Reimbursement) error
	GetReimbursement(ctx context.Context, id string) (core.Reimbursement, error)
	ListReimbursements(ctx context.Context, f storage.ReimbursementFilter) ([]core.Reimbursement, error)
	UpdateReimbursement(ctx context.Context, id string, u core.ReimbursementUpdate) (core.Reimbursement, error)
	TransitionReimbursement(ctx context.Context, id string, next core.ReimbursementStatus, notes string) (core.Reimbursement, error)
	DeleteReimbursement(ctx context.Context, id string) (core.Reimbursement, error)

	CreateEvent(ctx context.Context, e *core.Event) error
	GetEvent(ctx context.Context, id string) (core.Event, error)
	ListEvents(ctx context.Context) ([]core.Event, error)
	UpdateEvent(ctx context.Context, id string, u core.EventUpdate) (core.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	AddEventExpense(ctx context.Context, eventID string, x *core.EventExpense) (core.Event, error)

	CreateRecurring(ctx context.Context, rt *core.RecurringTransaction) error
	GetRecurring(ctx context.Context, id string) (core.RecurringTransaction, error)
	ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (core.ChapterSettings, error)
	UpdateSettings(ctx context.Context, u core.SettingsUpdate) (core.ChapterSettings, error)
}

// Deps wires the server to storage, services and edge collaborators.
type Deps struct {
	Store         Store
	Ledger        *services.LedgerService
	Notifications *services.NotificationService
	SMS           *services.SMSService
	Billing       *services.BillingService
	Analytics     *services.AnalyticsService
	Cashflow      *services.CashflowService
	Scenarios     *services.ScenarioService
	Receipts      receipts.Store

	Logger      *log.Logger
	Auth        *auth.Authenticator
	RateLimit   ratelimit.Config
	UploadDir   string
	FrontendURL string
	CORSOrigins []string
}

type Server struct {
	http.Server
	deps Deps

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer registers every API route behind the middleware chain and
// returns a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.New(log.DefaultConfig())
	}
	if d.Auth == nil {
		d.Auth = auth.New("")
	}
	if d.RateLimit.RequestsPerMinute == 0 {
		d.RateLimit = ratelimit.DefaultConfig()
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deps:     d,
		limiter:  ratelimit.NewLimiter(d.RateLimit),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(d.Logger.WithComponent(log.ComponentHTTP), s.detector.ExtractClientIP)

	s.routes(mux)

	cors := security.DefaultCORSConfig(d.FrontendURL)
	cors.AllowedOrigins = append(cors.AllowedOrigins, d.CORSOrigins...)

	var h http.Handler = mux
	h = d.Auth.Middleware(s.unauthorized)(h)
	h = security.CORS(cors)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited)(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	s.Handler = h
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)

	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("POST /api/members", s.handleCreateMember)
	mux.HandleFunc("GET /api/members/stats/summary", s.handleDuesSummary)
	mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)

	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/payments", s.handleRecordPayment)
	mux.HandleFunc("GET /api/payments/member/{memberId}", s.handleMemberPayments)
	mux.HandleFunc("GET /api/payments/{id}", s.handleGetPayment)
	mux.HandleFunc("PUT /api/payments/{id}", s.handleUpdatePayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)

	mux.HandleFunc("GET /api/reimbursements", s.handleListReimbursements)
	mux.HandleFunc("POST /api/reimbursements", s.handleCreateReimbursement)
	mux.HandleFunc("GET /api/reimbursements/stats/summary", s.handleReimbursementSummary)
	mux.HandleFunc("GET /api/reimbursements/{id}", s.handleGetReimbursement)
	mux.HandleFunc("PUT /api/reimbursements/{id}", s.handleUpdateReimbursement)
	mux.HandleFunc("PATCH /api/reimbursements/{id}", s.handleUpdateReimbursement)
	mux.HandleFunc("PATCH /api/reimbursements/{id}/status", s.handleReimbursementStatus)
	mux.HandleFunc("DELETE /api/reimbursements/{id}", s.handleDeleteReimbursement)

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/events/stats/comparison", s.handleEventComparison)
	mux.HandleFunc("GET /api/events/stats/top-by-cost", s.handleTopEvents)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("POST /api/events/{id}/expenses", s.handleAddExpense)

	mux.HandleFunc("GET /api/cashflow/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/cashflow/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/cashflow/recurring/{id}", s.handleGetRecurring)
	mux.HandleFunc("PUT /api/cashflow/recurring/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/cashflow/recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("GET /api/cashflow/projection", s.handleProjection)

	mux.HandleFunc("GET /api/analytics/spending-by-category", s.handleSpendingByCategory)
	mux.HandleFunc("GET /api/analytics/spending-trends", s.handleSpendingTrends)
	mux.HandleFunc("GET /api/analytics/spending-per-member", s.handleSpendingPerMember)
	mux.HandleFunc("GET /api/analytics/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	mux.HandleFunc("POST /api/scenarios", s.handleSaveScenario)
	mux.HandleFunc("POST /api/scenarios/calculate", s.handleSaveScenario)
	mux.HandleFunc("POST /api/scenarios/preview", s.handlePreviewScenario)
	mux.HandleFunc("DELETE /api/scenarios/{id}", s.handleDeleteScenario)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/send-reminder/{memberId}", s.handleSendReminder)
	mux.HandleFunc("POST /api/notifications/send-bulk-reminders", s.handleSendBulkReminders)

	mux.HandleFunc("POST /api/sms/send-reminder/{memberId}", s.handleSMSReminder)
	mux.HandleFunc("POST /api/sms/send-bulk-reminders", s.handleSMSBulkReminders)
	mux.HandleFunc("POST /api/sms/send-confirmation/{memberId}", s.handleSMSConfirmation)
	mux.HandleFunc("POST /api/sms/send-custom/{memberId}", s.handleSMSCustom)
	mux.HandleFunc("POST /api/sms/send-low-reserve-alert", s.handleSMSLowReserve)

	mux.HandleFunc("POST /api/stripe/create-payment-link", s.handleCreatePaymentLink)
	mux.HandleFunc("POST /api/stripe/create-bulk-payment-links", s.handleCreateBulkPaymentLinks)
	mux.HandleFunc("POST /api/stripe/create-checkout-session", s.handleCreateCheckoutSession)
	mux.HandleFunc("POST /api/stripe/webhook", s.handleStripeWebhook)
	mux.HandleFunc("GET /api/stripe/payment-history/{memberId}", s.handlePaymentHistory)

	mux.HandleFunc("GET /api/exports/members.csv", s.handleExportMembers)
	mux.HandleFunc("GET /api/exports/payments.csv", s.handleExportPayments)

	if s.deps.UploadDir != "" {
		files := http.StripPrefix(receipts.PublicPrefix, http.FileServer(http.Dir(s.deps.UploadDir)))
		mux.Handle("GET "+receipts.PublicPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "private, max-age=3600")
			files.ServeHTTP(w, r)
		}))
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Authentication required"
	if !errors.Is(err, auth.ErrMissingToken) {
		msg = "Invalid or expired token"
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="greekledger"`)
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msg})
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Rate limit exceeded. Please try again later."})
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters for the health endpoint.
type Metrics struct {
	Requests      int64 `json:"requests"`
	ServerErrors  int64 `json:"serverErrors"`
	RateLimited   int64 `json:"rateLimited"`
	ActiveClients int   `json:"activeClients"`
	Probes        int64 `json:"probesBlocked"`
}

func (s *Server) Metrics() Metrics {
	t := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	return Metrics{
		Requests:      t.TotalRequests,
		ServerErrors:  t.ServerErrors,
		RateLimited:   rl.TotalHits,
		ActiveClients: int(rl.ClientCount),
		Probes:        s.detector.Probes(),
	}
}
