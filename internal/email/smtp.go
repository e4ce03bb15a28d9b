package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
)

// SMTPConfig holds the relay settings. Username doubles as the sender address.
type SMTPConfig struct {
	Host     string // e.g. "smtp.gmail.com"
	Port     int    // 465, implicit TLS
	Username string
	Password string
	FromName string // optional display name
}

// smtpSender is the concrete Notifier backed by an SMTP relay.
type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns a Notifier that authenticates to the relay and sends
// over an implicit TLS connection. A fresh connection is dialled per message.
func NewSMTPSender(cfg SMTPConfig) notify.Notifier {
	return &smtpSender{cfg: cfg}
}

// Send composes the MIME message and delivers it. Credentials are not checked
// up front: an empty username or password fails here, at send time.
func (s *smtpSender) Send(ctx context.Context, msg notify.Message) error {
	if err := checkAttachment(msg.Attachment); err != nil {
		return err
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("email: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: smtp send: %w", err)
	}
	return nil
}

// buildMessage turns a notify.Message into a go-mail message. Attachments are
// base64-encoded by go-mail.
func (s *smtpSender) buildMessage(msg notify.Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	var err error
	if s.cfg.FromName != "" {
		err = m.FromFormat(s.cfg.FromName, s.cfg.Username)
	} else {
		err = m.From(s.cfg.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("email: sender address %q: %w", s.cfg.Username, err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("email: recipient address: %w", err)
	}

	m.Subject(msg.Subject)

	contentType := mail.TypeTextPlain
	if msg.HTML {
		contentType = mail.TypeTextHTML
	}
	m.SetBodyString(contentType, msg.Body)

	if a := msg.Attachment; a != nil {
		m.AttachFile(a.Path, mail.WithFileName(a.Filename))
	}

	return m, nil
}
