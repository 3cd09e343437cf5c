package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
	"ebudget/internal/format"
	"ebudget/internal/log"
	"ebudget/internal/middleware/auth"
	"ebudget/internal/middleware/ratelimit"
	"ebudget/internal/middleware/security"
	"ebudget/internal/middleware/trace"
	"ebudget/internal/mutation"
	"ebudget/internal/projection"
)

// Ledger is what the API needs from services.LedgerService.
type Ledger interface {
	Snapshot(ctx context.Context, userID string) (*projection.Snapshot, error)
	SupportsBudgets() bool

	SaveTransaction(ctx context.Context, userID string, in mutation.TransactionIntent) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	SaveCategory(ctx context.Context, userID string, in mutation.CategoryIntent) (core.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	SaveGoal(ctx context.Context, userID string, in mutation.GoalIntent) (core.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
	AdjustGoal(ctx context.Context, userID, id string, delta decimal.Decimal) (core.Goal, error)
	SaveBudget(ctx context.Context, userID string, in mutation.BudgetIntent) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error
	AddBudgetSpending(ctx context.Context, userID, id string, amount decimal.Decimal) (core.Budget, error)
}

type Options struct {
	Logger *log.Logger
	Format format.Options

	// JWTSecret enables bearer authentication. Without it the user id is
	// read from the X-User-ID header.
	JWTSecret    string
	RateLimitRPM int

	// Ready backs /readyz. Nil means always ready.
	Ready func(context.Context) error

	// Now is the clock used for default months.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger    Ledger
	formatter *format.Formatter
	logger    *log.Logger
	ready     func(context.Context) error
	now       func() time.Time

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitRPM > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitRPM
	}

	s := &Server{
		ledger:    ledger,
		formatter: format.New(opts.Format),
		logger:    logger.WithComponent(log.ComponentHTTP),
		ready:     opts.Ready,
		now:       now,
		limiter:   ratelimit.NewLimiter(rlConfig),
		detector:  security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)

	api := http.NewServeMux()
	s.registerLedgerRoutes(api)
	s.registerReportRoutes(api)

	authn := auth.New(opts.JWTSecret).Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		ErrorFor(err).Write(w)
	})
	limit := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.metrics)
	mux.Handle("/api/", limit(authn(api)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.detector.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, CodeUpstreamFailure, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// snapshot loads the caller's snapshot, writing the error response itself
// when that fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*projection.Snapshot, bool) {
	snap, err := s.ledger.Snapshot(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return nil, false
	}
	return snap, true
}

// fail writes the mapped response, logging backend failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode == http.StatusBadGateway {
		fields := log.NewFields().
			WithOperation(op).
			WithError(err).
			WithErrorType(log.ErrorTypeUpstream)
		fields[log.FieldUserID] = auth.UserID(r.Context())
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	}
	resp.Write(w)
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	NewJSONResponse().Data(map[string]string{
		"requests":            strconv.FormatInt(tm.TotalRequests, 10),
		"avg_response_us":     strconv.FormatInt(tm.AverageResponseTime, 10),
		"rate_limited":        strconv.FormatInt(rl.TotalHits, 10),
		"tracked_clients":     strconv.FormatInt(rl.ClientCount, 10),
		"suspicious_requests": strconv.FormatInt(s.detector.GetMetrics().SuspiciousRequests, 10),
	}).Write(w)
}
