package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/nyashahama/receipt-dispatch-backend/internal/metrics"
)

// ─── RATE LIMIT ───────────────────────────────────────────────────────────────

// rateLimit counts the request against the caller's windows. The caller is
// identified by IP, after middleware.RealIP has applied proxy headers.
//
// When the limiter backend is unreachable the request is let through and the
// failure is logged: an outage of Redis must not take the till offline.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := clientIP(r)
		decision, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			s.logger.Warn("rate limiter unavailable, allowing request",
				"error", err,
				logField(r),
			)
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			metrics.RateLimited.Inc()
			s.logger.Info("rate limited",
				"client", key,
				"window", decision.Breached.String(),
				logField(r),
			)
			secs := int(math.Ceil(decision.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondErr(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr when there is one.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

// corsMiddleware handles preflight OPTIONS requests and sets CORS headers.
// The POS frontend runs on a different origin from this API.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := origin
		if s.cfg.Env == "production" && s.cfg.CORSOrigin != "" {
			allowed = s.cfg.CORSOrigin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ─── LOGGER MIDDLEWARE ────────────────────────────────────────────────────────

// loggerMiddleware logs each request with method, path, status, and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", clientIP(r),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondErr writes a standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// respondInternalErr logs an unexpected error and returns a 500 to the client
// without leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		logField(r),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// parseMultipart size-limits and parses a multipart (or urlencoded) body.
// It returns false and writes 413 when the body is too large. Any other parse
// failure leaves the form empty so the handler reports the missing fields.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	err := r.ParseMultipartForm(32 << 20)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondErr(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.Debug("multipart parse failed", "error", err, logField(r))
	}
	return true
}

// logField returns a slog.Attr using the request ID for correlation.
func logField(r *http.Request) slog.Attr {
	return slog.String("request_id", middleware.GetReqID(r.Context()))
}
