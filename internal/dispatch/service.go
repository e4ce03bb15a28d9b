// Package dispatch validates a receipt submission and delivers it by email or
// SMS. It owns the ordering of checks and the mapping of failures onto the
// three error kinds; it knows nothing about HTTP.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/nyashahama/receipt-dispatch-backend/internal/email"
	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
	"github.com/nyashahama/receipt-dispatch-backend/internal/receipt"
	"github.com/nyashahama/receipt-dispatch-backend/internal/upload"
)

// Delivery methods accepted in the "method" field.
const (
	MethodEmail = "email"
	MethodSMS   = "sms"
)

// attachmentName is the filename the customer sees, whatever the scratch
// file is called on disk.
const attachmentName = "receipt.pdf"

// Request is one submission. Document is nil when no file was sent.
type Request struct {
	Recipient string
	Method    string
	Content   string
	Document  io.Reader
}

// Config holds the message settings.
type Config struct {
	EmailSubject string
	Currency     string

	// StrictPDF rejects documents pdfcpu cannot parse.
	StrictPDF bool
}

// Service runs the dispatch pipeline. It is safe for concurrent use: every
// request writes its own scratch document.
type Service struct {
	store  *upload.Store
	email  notify.Notifier
	sms    notify.Notifier
	cfg    Config
	logger *slog.Logger
}

// NewService constructs a Service. Empty config fields take their defaults.
func NewService(
	store *upload.Store,
	emailSender notify.Notifier,
	smsSender notify.Notifier,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.EmailSubject == "" {
		cfg.EmailSubject = email.DefaultSubject
	}
	if cfg.Currency == "" {
		cfg.Currency = receipt.DefaultCurrency
	}
	return &Service{
		store:  store,
		email:  emailSender,
		sms:    smsSender,
		cfg:    cfg,
		logger: logger,
	}
}

// Dispatch validates req and sends the receipt. It returns nil or a *Error.
//
// Checks run in a fixed order and the first failure wins:
//
//  1. all four inputs present
//  2. content is JSON
//  3. content is an object
//  4. email recipients look like an address; sms recipients like a number
//  5. method is email or sms
//
// Only then is the document written to disk.
func (s *Service) Dispatch(ctx context.Context, req Request) error {
	obj, verr := validate(req)
	if verr != nil {
		return verr
	}

	path, err := s.store.SaveScratch(req.Document)
	if err != nil {
		return failed(KindResource, err)
	}
	defer func() {
		if err := s.store.Remove(path); err != nil {
			s.logger.Warn("dispatch: scratch cleanup failed", "path", path, "error", err)
		}
	}()

	if s.cfg.StrictPDF {
		if err := upload.ValidatePDF(path); err != nil {
			return &Error{Kind: KindValidation, Message: MsgInvalidPDF, Err: err}
		}
	}

	content, err := receipt.Decode(obj)
	if err != nil {
		return failed(KindResource, err)
	}

	switch req.Method {
	case MethodEmail:
		return s.sendEmail(ctx, req.Recipient, path, content)
	default:
		return s.sendSMS(ctx, req.Recipient, content)
	}
}

func validate(req Request) (map[string]any, *Error) {
	if req.Recipient == "" || req.Method == "" || req.Content == "" || req.Document == nil {
		return nil, invalid(MsgMissingFields)
	}

	obj, err := receipt.Parse(req.Content)
	switch {
	case errors.Is(err, receipt.ErrInvalidJSON):
		return nil, invalid(MsgInvalidJSON)
	case errors.Is(err, receipt.ErrNotObject):
		return nil, invalid(MsgNotObject)
	}

	switch req.Method {
	case MethodEmail:
		if !receipt.ValidEmail(req.Recipient) {
			return nil, invalid(MsgInvalidEmail)
		}
	case MethodSMS:
		if !receipt.ValidPhone(req.Recipient) {
			return nil, invalid(MsgInvalidPhone)
		}
	default:
		return nil, invalid(MsgInvalidMethod)
	}

	return obj, nil
}

func (s *Service) sendEmail(ctx context.Context, to, path string, c receipt.Content) error {
	err := s.email.Send(ctx, notify.Message{
		To:         to,
		Subject:    s.cfg.EmailSubject,
		Body:       receipt.EmailHTML(c, s.cfg.Currency),
		HTML:       true,
		Attachment: &notify.Attachment{Filename: attachmentName, Path: path},
	})
	if errors.Is(err, email.ErrDocumentNotFound) {
		return failed(KindResource, err)
	}
	if err != nil {
		return failed(KindTransport, err)
	}
	return nil
}

func (s *Service) sendSMS(ctx context.Context, to string, c receipt.Content) error {
	err := s.sms.Send(ctx, notify.Message{
		To:   to,
		Body: receipt.SMSText(c, s.cfg.Currency),
	})
	if err != nil {
		return failed(KindTransport, err)
	}
	return nil
}
