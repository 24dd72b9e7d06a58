// Package http serves the ledger's JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/middleware/ratelimit"
	"finledger/internal/middleware/security"
	"finledger/internal/middleware/trace"
	"finledger/internal/services"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxBodyBytes     = 64 << 10
	readTimeout      = 10 * time.Second
	writeTimeout     = 30 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds what the API needs beyond the engine.
type ServerConfig struct {
	Addr               string
	OwnerID            string
	RateLimitPerMinute int
	ReminderDaysAhead  int
	// Now is the clock used for default dates; time.Now when nil.
	Now func() time.Time
}

type Server struct {
	http.Server
	engine   *services.Engine
	store    Pinger
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	ownerID           string
	reminderDaysAhead int
	now               func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(cfg ServerConfig, engine *services.Engine, store Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ReminderDaysAhead <= 0 {
		cfg.ReminderDaysAhead = services.DefaultReminderDaysAhead
	}

	s := &Server{
		engine:            engine,
		store:             store,
		logger:            logger,
		limiter:           ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:          security.NewDetector(),
		tracer:            trace.NewMiddleware(),
		ownerID:           core.OwnerOrDefault(cfg.OwnerID),
		reminderDaysAhead: cfg.ReminderDaysAhead,
		now:               cfg.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:         cfg.Addr,
		Handler:      s.middleware(mux),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("GET /api/stats", s.handleStatistics)
	mux.HandleFunc("GET /api/stats/breakdown", s.handleBreakdown)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/tags", s.handleCommonTags)

	mux.HandleFunc("POST /api/prepaid", s.handleCreatePrepaid)
	mux.HandleFunc("GET /api/prepaid", s.handleListPrepaid)
	mux.HandleFunc("GET /api/prepaid/{id}", s.handleGetPrepaid)

	mux.HandleFunc("POST /api/subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("GET /api/subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("POST /api/subscriptions/{id}/toggle", s.handleToggleSubscription)

	mux.HandleFunc("POST /api/budgets", s.handleSetBudget)
	mux.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)
	mux.HandleFunc("GET /api/budgets/alert", s.handleBudgetAlert)

	mux.HandleFunc("POST /api/goals", s.handleUpsertGoal)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)

	mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /api/snapshots/{month}", s.handleGetSnapshot)
	mux.HandleFunc("POST /api/snapshots/{month}", s.handleRegenerateSnapshot)

	mux.HandleFunc("POST /api/jobs/amortize", s.handleRunAmortization)
	mux.HandleFunc("POST /api/jobs/bill", s.handleRunBilling)
	mux.HandleFunc("POST /api/jobs/remind", s.handleRunReminders)
}

// middleware wraps h so that security headers and the request id are in
// place before anything logs, and rate limiting runs last.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.detector.BlockSuspicious(h)
	h = log.AccessLog(s.detector.ExtractClientIP)(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Handler(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldErrorType, log.ErrorTypeDatabase, log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) owner(r *http.Request) string {
	if owner := r.URL.Query().Get("owner"); owner != "" {
		return owner
	}
	return s.ownerID
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
