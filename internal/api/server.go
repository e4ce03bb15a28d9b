// Package api implements the HTTP layer for the receipt service. Handlers are
// methods on *Server. Each handler file is responsible for one route group and
// only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nyashahama/receipt-dispatch-backend/internal/dispatch"
	"github.com/nyashahama/receipt-dispatch-backend/internal/metrics"
	"github.com/nyashahama/receipt-dispatch-backend/internal/ratelimit"
	"github.com/nyashahama/receipt-dispatch-backend/internal/upload"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// CORSOrigin is the allowed browser origin in production. Outside
	// production the request's own Origin is echoed back.
	CORSOrigin string

	// MaxUploadBytes caps the body of the two multipart endpoints.
	MaxUploadBytes int64

	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
}

// Dispatcher sends a receipt. *dispatch.Service satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) error
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// uploads stores logos and serves them back.
	uploads *upload.Store

	// dispatcher validates and delivers receipts.
	dispatcher Dispatcher

	// limiter enforces per-client request ceilings. nil disables limiting.
	limiter ratelimit.Limiter

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	uploads *upload.Store,
	dispatcher Dispatcher,
	limiter ratelimit.Limiter,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		uploads:    uploads,
		dispatcher: dispatcher,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(metrics.Middleware)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	// ── Operational ───────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// ── Public, rate limited ──────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Post("/upload-logo", s.handleUploadLogo)
		r.Post("/send-receipt", s.handleSendReceipt)
		r.Get("/uploads/{name}", s.handleGetUpload)
	})

	return r
}
