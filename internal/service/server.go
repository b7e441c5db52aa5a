// Package service exposes reconciliation as a remotely-invokable tool over
// HTTP: trace-context propagation on the way in, gate-bounded concurrency
// around every invocation, structured errors on the way out.
package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"record-reconciliation/internal/audit"
	"record-reconciliation/internal/connector"
	"record-reconciliation/internal/reconcile"
	"record-reconciliation/internal/report"
	"record-reconciliation/pkg/gate"
	"record-reconciliation/pkg/logging"
	"record-reconciliation/pkg/metrics"
	"record-reconciliation/pkg/trace"
)

const toolName = "reconcile_records"

// Server wires the HTTP surface. All dependencies are passed in; nothing
// here reaches for globals.
type Server struct {
	router     *mux.Router
	log        *logging.ComponentLogger
	gate       *gate.Gate
	registry   *connector.Registry
	engine     *reconcile.Engine
	auditStore audit.Store
	summarizer *report.Summarizer
	geocoder   *connector.AddressCanonicalizer

	defaultsMu sync.RWMutex
	defaults   Defaults

	mRequests *metrics.Counter
	mRejected *metrics.Counter
}

// Defaults apply when a request does not carry its own run configuration.
type Defaults struct {
	RunConfigPath   string
	MatchThreshold  float64
	ReviewThreshold float64
}

func NewServer(
	log *logging.Logger,
	g *gate.Gate,
	registry *connector.Registry,
	engine *reconcile.Engine,
	auditStore audit.Store,
	summarizer *report.Summarizer,
	geocoder *connector.AddressCanonicalizer,
	defaults Defaults,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		gate:       g,
		registry:   registry,
		engine:     engine,
		auditStore: auditStore,
		summarizer: summarizer,
		geocoder:   geocoder,
		defaults:   defaults,
		mRequests:  metrics.Default.Counter("http_reconcile_requests", "Reconcile tool invocations"),
		mRejected:  metrics.Default.Counter("http_reconcile_rejected", "Invocations cancelled while waiting on the gate"),
	}
	if log != nil {
		s.log = log.WithComponent("service")
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.traceMiddleware)
	s.router.HandleFunc("/reconcile", s.handleReconcile).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Default.Handler()).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler { return s.router }

// SetDefaults replaces the run defaults; a config reload calls this so
// new thresholds apply to subsequently started runs. Runs already in
// flight keep the defaults they started with.
func (s *Server) SetDefaults(d Defaults) {
	s.defaultsMu.Lock()
	s.defaults = d
	s.defaultsMu.Unlock()
}

func (s *Server) currentDefaults() Defaults {
	s.defaultsMu.RLock()
	defer s.defaultsMu.RUnlock()
	return s.defaults
}

// traceMiddleware attaches the invocation's trace context. An incoming
// X-Trace-Id is honored so callers can correlate across services; the id
// is echoed back on every response.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := trace.New(toolName)
		if id := r.Header.Get("X-Trace-Id"); id != "" {
			tc.TraceID = id
		}
		if pd := r.Header.Get("X-Policy-Decision-Id"); pd != "" {
			tc.PolicyDecisionID = pd
		}
		w.Header().Set("X-Trace-Id", tc.TraceID)
		next.ServeHTTP(w, r.WithContext(trace.Into(r.Context(), tc)))
	})
}

// ListenAndServe runs the server until ctx is cancelled, then drains with
// the given timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, drain time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
