// Package http exposes the expense API over net/http.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"finmate/internal/core"
	"finmate/internal/log"
	"finmate/internal/middleware/ratelimit"
	"finmate/internal/middleware/security"
	"finmate/internal/middleware/trace"
	"finmate/internal/storage"
)

// ExpenseService is the set of operations the handlers call.
type ExpenseService interface {
	GetAllExpenses(ctx context.Context) ([]core.Expense, error)
	GetExpenseByID(ctx context.Context, id int64) (core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error)
	GetExpensesByDateRange(ctx context.Context, start, end core.Date) ([]core.Expense, error)
	GetExpensesByMonth(ctx context.Context, year, month int) ([]core.Expense, error)
	GetMonthlySummaryByCategory(ctx context.Context, year, month int) ([]core.CategoryTotal, error)
	GetMonthlyTotals(ctx context.Context) ([]core.MonthTotal, error)
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to the defaults noted per field.
type Options struct {
	// AllowedOrigins lists CORS origins; an empty list allows any origin.
	AllowedOrigins []string
	// Clock decides "today" for date validation; nil uses time.Now.
	Clock storage.Clock
	// Logger defaults to log.New(log.DefaultConfig()).
	Logger *log.Logger
	// RequestsPerMinute per client IP; 0 disables rate limiting.
	RequestsPerMinute int
	// RequestTimeout bounds reading a request and writing its response; default 10s.
	RequestTimeout time.Duration
}

type Server struct {
	http.Server
	svc         ExpenseService
	clock       storage.Clock
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	started     time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, svc ExpenseService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       opts.RequestTimeout,
			WriteTimeout:      opts.RequestTimeout,
			IdleTimeout:       60 * time.Second,
		},
		svc:     svc,
		clock:   opts.Clock,
		logger:  opts.Logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
	}
	s.routes(mux)

	resolver := security.NewIPResolver()
	s.tracer = trace.NewMiddleware(s.logger, resolver.ClientIP)

	var h http.Handler = mux
	if opts.RequestsPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute})
		h = s.rateLimiter.Middleware(resolver.ClientIP, respondTooManyRequests)(h)
	}
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Location"},
		MaxAge:         3600,
	}).Handler(h)
	s.Handler = s.tracer.Middleware(h)

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /expenses/category/{category}", s.handleExpensesByCategory)
	mux.HandleFunc("GET /expenses/date-range", s.handleExpensesByDateRange)
	mux.HandleFunc("GET /expenses/monthly/{year}/{month}", s.handleExpensesByMonth)
	mux.HandleFunc("GET /expenses/summary/monthly/{year}/{month}", s.handleMonthlySummary)
	mux.HandleFunc("GET /expenses/summary/trends", s.handleMonthlyTrends)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		JSON(map[string]string{
			"status": "ok",
			"uptime": time.Since(s.started).Round(time.Second).String(),
		}).
		Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			JSON(map[string]string{"status": "not_ready", "storage": "unreachable"}).
			Write(w)
		return
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready", "storage": "ok"}).Write(w)
}
