// Package config loads and validates all environment variables at startup.
// Every other package receives typed values; nothing else reads os.Getenv.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nyashahama/receipt-dispatch-backend/internal/ratelimit"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port           string        // default "8080"
	Env            string        // "development" | "staging" | "production"
	CORSOrigin     string        // allowed browser origin in production
	RequestTimeout time.Duration // default 60s
	UploadDir      string        // default "uploads"
	MaxUploadMB    int           // default 16

	// ── Email ─────────────────────────────────────────────────────────────────
	// EmailProvider selects the transport: "smtp" (default) or "resend".
	EmailProvider string
	SMTPHost      string // default "smtp.gmail.com"
	SMTPPort      int    // default 465, implicit TLS
	SMTPUser      string // also the sender address
	SMTPPass      string
	ResendAPIKey  string
	EmailFromAddr string // defaults to SMTP_USER
	EmailFromName string
	EmailSubject  string // default "Your Supermarket Store Receipt"

	// ── SMS (Twilio) ──────────────────────────────────────────────────────────
	TwilioSID   string
	TwilioToken string
	TwilioPhone string // sender number, E.164

	// ── Receipts ──────────────────────────────────────────────────────────────
	CurrencyLabel string // default "PHP"
	StrictPDF     bool   // reject documents that do not parse as PDF

	// ── Rate limiting ─────────────────────────────────────────────────────────
	// RedisURL is optional. When empty, counters live in process memory.
	RedisURL        string
	RateLimitHourly int // default 50
	RateLimitDaily  int // default 200
}

// Load reads all environment variables and returns a validated Config.
// It automatically loads a .env file from the working directory when present,
// so plain `go run ./cmd/api` works in development without any wrapper.
// Real environment variables always take precedence over .env values.
//
// Transport credentials are optional here. A missing SMTP or Twilio secret
// surfaces as a send failure on the request that needs it.
func Load() (*Config, error) {
	loadDotEnv(".env")

	c := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		CORSOrigin:      os.Getenv("CORS_ORIGIN"),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 16),
		EmailProvider:   strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        getEnvAsInt("SMTP_PORT", 465),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		EmailFromName:   os.Getenv("EMAIL_FROM_NAME"),
		EmailSubject:    getEnv("EMAIL_SUBJECT", "Your Supermarket Store Receipt"),
		TwilioSID:       os.Getenv("TWILIO_SID"),
		TwilioToken:     os.Getenv("TWILIO_TOKEN"),
		TwilioPhone:     os.Getenv("TWILIO_PHONE"),
		CurrencyLabel:   getEnv("CURRENCY_LABEL", "PHP"),
		StrictPDF:       getEnvAsBool("STRICT_PDF", false),
		RedisURL:        os.Getenv("REDIS_URL"),
		RateLimitHourly: getEnvAsInt("RATE_LIMIT_HOURLY", 50),
		RateLimitDaily:  getEnvAsInt("RATE_LIMIT_DAILY", 200),
	}
	c.EmailFromAddr = getEnv("EMAIL_FROM_ADDR", c.SMTPUser)

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	switch c.EmailProvider {
	case "smtp", "resend":
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be smtp or resend, got %q", c.EmailProvider))
	}

	positive := map[string]int{
		"SMTP_PORT":         c.SMTPPort,
		"MAX_UPLOAD_MB":     c.MaxUploadMB,
		"RATE_LIMIT_HOURLY": c.RateLimitHourly,
		"RATE_LIMIT_DAILY":  c.RateLimitDaily,
	}
	for name, val := range positive {
		if val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, val))
		}
	}

	if c.UploadDir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
	}

	return errors.Join(errs...)
}

// RateLimitWindows returns the daily and hourly limits, longest first.
func (c *Config) RateLimitWindows() []ratelimit.Window {
	return []ratelimit.Window{
		{Limit: c.RateLimitDaily, Period: 24 * time.Hour},
		{Limit: c.RateLimitHourly, Period: time.Hour},
	}
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ─── DOT-ENV LOADER ──────────────────────────────────────────────────────────

// loadDotEnv reads key=value pairs from path and sets them in the environment,
// but only for keys that are not already set. This means real env vars (e.g.
// from Docker / Railway / your shell) always win over the file.
// Missing file, blank lines, and #-comments are all silently ignored.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // no .env file
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Strip optional surrounding quotes: KEY="value" or KEY='value'
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		// Only set if the key isn't already present in the environment.
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// A plain integer is a number of seconds.
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	// Fall back to Go duration syntax: "30s", "5m", "1h", etc.
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
