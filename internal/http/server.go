package http

import (
	"context"
	"net/http"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/report"
	"ledger/internal/services"
)

// LedgerService is what the handlers need from the session ledger.
type LedgerService interface {
	Stats() services.Stats
	Reload(ctx context.Context) (services.Stats, error)
	Add(ctx context.Context, req services.AddRequest) (core.Transaction, error)
	Delete(ctx context.Context, id core.Identity) (int, error)
	List(q report.ListQuery) report.ListResult
	CategoryIndex() map[core.TxType][]string
	Report(ctx context.Context, req report.Request) (report.Report, error)
}

var _ LedgerService = (*services.LedgerService)(nil)

// Server wraps http.Server with the ledger routes and middleware.
type Server struct {
	http.Server
	ledger   LedgerService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// Options tunes the middleware; zero values take defaults.
type Options struct {
	RequestsPerMinute int
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is believed,
	// on top of loopback and private ranges.
	TrustedProxies []string
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Shutdown must be called to stop background work.
func NewServer(addr string, svc LedgerService, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		ledger:   svc,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions", s.handleDeleteTransactions)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/reports/{kind}", s.handleReport)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = s.rejectProbes(handler)
	handler = security.Headers(security.APIHeadersConfig())(handler)
	handler = s.tracer.Handler(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// rejectProbes answers requests that look like vulnerability scans with a
// bare 404.
func (s *Server) rejectProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ClientIP(r))
			NotFoundError("not found").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.logger.InfoContext(ctx, "HTTP server shutting down",
		"requests_served", s.tracer.Total(),
		"rate_limited", s.limiter.Hits(),
		"active_clients", s.limiter.ActiveClients(),
		"suspicious", s.detector.SuspiciousCount())
	return s.Server.Shutdown(ctx)
}
