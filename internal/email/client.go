// Package email provides notify.Notifier implementations that deliver the
// receipt email: SMTP over implicit TLS (the default) and the Resend API.
package email

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
)

// ErrDocumentNotFound is returned by every sender when the message carries an
// attachment whose file does not exist. Its text is shown to API callers.
var ErrDocumentNotFound = errors.New("PDF file not found")

// DefaultSubject is the subject line used when none is configured.
const DefaultSubject = "Your Supermarket Store Receipt"

// checkAttachment enforces the "document must exist" precondition before any
// network work starts.
func checkAttachment(a *notify.Attachment) error {
	if a == nil {
		return nil
	}
	info, err := os.Stat(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("email: stat attachment: %w", err)
	}
	if info.IsDir() {
		return ErrDocumentNotFound
	}
	return nil
}
