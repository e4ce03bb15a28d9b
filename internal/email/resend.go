package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
)

const resendEndpoint = "https://api.resend.com/emails"

// resendClient is the Notifier backed by the Resend API. It is an alternative
// to SMTP for deployments where outbound port 465 is blocked.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "receipts@store.example"
	fromName   string // e.g. "Supermarket Store"
	endpoint   string
	httpClient *http.Client
}

// NewResendSender returns a Notifier that delivers email via Resend.
func NewResendSender(apiKey, fromAddr, fromName string) notify.Notifier {
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html,omitempty"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// Send posts the message to Resend. The attachment, if any, is read in full
// and inlined as base64.
func (c *resendClient) Send(ctx context.Context, msg notify.Message) error {
	if err := checkAttachment(msg.Attachment); err != nil {
		return err
	}

	from := c.fromAddr
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)
	}

	reqBody := resendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
	}
	if msg.HTML {
		reqBody.HTML = msg.Body
	} else {
		reqBody.Text = msg.Body
	}

	if a := msg.Attachment; a != nil {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return fmt.Errorf("email: read attachment: %w", err)
		}
		reqBody.Attachments = []resendAttachment{{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(data),
		}}
	}

	return c.post(ctx, reqBody)
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) post(ctx context.Context, reqBody resendRequest) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}
