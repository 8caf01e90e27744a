// Package http serves the tracker's JSON API and charts.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"timetracker/internal/charts"
	"timetracker/internal/log"
	"timetracker/internal/middleware/ratelimit"
	"timetracker/internal/middleware/security"
	"timetracker/internal/middleware/trace"
	"timetracker/internal/services"
)

type Options struct {
	Addr           string
	Tracker        *services.Tracker
	Charts         *charts.Renderer // nil uses charts.NewRenderer
	Logger         *log.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

type Server struct {
	http.Server
	tracker  *services.Tracker
	charts   *charts.Renderer
	limiter  *ratelimit.Limiter
	detector *security.Detector
	logger   *log.Logger
	events   *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	renderer := opts.Charts
	if renderer == nil {
		renderer = charts.NewRenderer()
	}

	s := &Server{
		tracker:  opts.Tracker,
		charts:   renderer,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		logger:   logger,
		events:   log.NewStructuredLogger(logger),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/data", s.handleGetData)
	mux.HandleFunc("POST /api/data", s.handleSaveData)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/projects/{id}/progress", s.handleProjectProgress)

	mux.HandleFunc("POST /api/entries", s.handleCreateTimeEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateTimeEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteTimeEntry)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/charts/daily.png", s.handleDailyChart)
	mux.HandleFunc("GET /api/charts/categories.png", s.handleCategoryChart)
	mux.HandleFunc("GET /api/charts/progress.png", s.handleProgressChart)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
}

// middleware runs, outermost first: tracing, security headers, scan
// detection, and the rate limit on mutating requests.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.limiter.Middleware(s.detector.ExtractClientIP, isSafeMethod, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})(next)
	h = s.flagSuspicious(h)
	h = security.NoStore(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(h)
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Shutdown stops the background rate limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.tracker.Ready(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
