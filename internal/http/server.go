package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calm/internal/log"
	"calm/internal/middleware/ratelimit"
	"calm/internal/middleware/security"
	"calm/internal/middleware/trace"
	"calm/internal/services"
)

// ChartProvider serves the chart endpoints.
type ChartProvider interface {
	Chart(ctx context.Context, req services.ChartRequest) (services.ChartResponse, error)
	Week(ctx context.Context) (services.WeekResponse, error)
}

// TimeAdder serves the write-back endpoint.
type TimeAdder interface {
	AddTime(ctx context.Context, taskID string, seconds float64) (services.AddTimeResult, error)
}

// Deps wires the server to its services. A nil Charts or TimeLog makes the
// matching endpoints answer with a configuration error.
type Deps struct {
	Charts  ChartProvider
	TimeLog TimeAdder
	Logger  *log.Logger

	// ChartSecrets names the variables reported when Charts is nil.
	ChartSecrets       []string
	RateLimitPerMinute int
	// Ready is consulted by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	deps        Deps
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if len(deps.ChartSecrets) == 0 {
		deps.ChartSecrets = []string{"NOTION_API_KEY", "NOTION_DATABASE_ID"}
	}

	s := &Server{
		deps:        deps,
		detector:    security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(deps.Logger, s.detector.ExtractClientIP, s.detector.DetectSuspiciousRequest)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.With(security.CORS(http.MethodGet)).HandleFunc("/notion-data", s.handleNotionData)
		r.With(security.CORS(http.MethodGet)).HandleFunc("/week-data", s.handleWeekData)
		r.With(security.CORS(http.MethodPost), s.limitWrites).HandleFunc("/save-time", s.handleSaveTime)
	})
	return r
}

// limitWrites rate limits POST requests per client address.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Rate limit exceeded"})
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and the HTTP server. Only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request and rate limit counters.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.rateLimiter.GetMetrics()
}
