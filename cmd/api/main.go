package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nyashahama/receipt-dispatch-backend/internal/api"
	"github.com/nyashahama/receipt-dispatch-backend/internal/config"
	"github.com/nyashahama/receipt-dispatch-backend/internal/dispatch"
	"github.com/nyashahama/receipt-dispatch-backend/internal/email"
	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
	"github.com/nyashahama/receipt-dispatch-backend/internal/ratelimit"
	"github.com/nyashahama/receipt-dispatch-backend/internal/sms"
	"github.com/nyashahama/receipt-dispatch-backend/internal/upload"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "email_provider", cfg.EmailProvider)

	// ── Upload directory ──────────────────────────────────────────────────────
	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// ── Notifiers ─────────────────────────────────────────────────────────────
	var mailer notify.Notifier
	switch cfg.EmailProvider {
	case "resend":
		mailer = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName)
	default:
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			FromName: cfg.EmailFromName,
		})
	}
	texter := sms.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioPhone)

	if cfg.SMTPUser == "" && cfg.EmailProvider == "smtp" {
		logger.Warn("SMTP_USER is not set; email receipts will fail")
	}
	if cfg.TwilioSID == "" {
		logger.Warn("TWILIO_SID is not set; SMS receipts will fail")
	}

	svc := dispatch.NewService(uploads, mailer, texter, dispatch.Config{
		EmailSubject: cfg.EmailSubject,
		Currency:     cfg.CurrencyLabel,
		StrictPDF:    cfg.StrictPDF,
	}, logger)

	// ── Rate limiting ─────────────────────────────────────────────────────────
	// Redis when configured so that several instances share counters.
	windows := cfg.RateLimitWindows()
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := ratelimit.Connect(pingCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedisLimiter(rdb, "receipts", windows)
		logger.Info("rate limiter: redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(windows)
		logger.Info("rate limiter: in-memory")
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(uploads, svc, limiter, api.Config{
		Env:            cfg.Env,
		CORSOrigin:     cfg.CORSOrigin,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RequestTimeout: cfg.RequestTimeout,
	}, logger)

	srv := newHTTPServer(":"+cfg.Port, handler, cfg.RequestTimeout)

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "upload_dir", uploads.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// In-flight sends get up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newHTTPServer leaves WriteTimeout unset when requestTimeout is zero, so a
// slow SMTP send is not cut off by the server either.
func newHTTPServer(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	if requestTimeout > 0 {
		srv.WriteTimeout = requestTimeout + 10*time.Second
	}
	return srv
}
