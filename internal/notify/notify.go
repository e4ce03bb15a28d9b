// Package notify defines the delivery capability shared by the email and SMS
// senders. The dispatch service talks only to Notifier; tests inject a stub
// that records messages without touching the network.
package notify

import "context"

// Attachment is a file on local disk that travels with a message. Filename is
// the name the recipient sees, independent of Path.
type Attachment struct {
	Filename string
	Path     string
}

// Message is a fully rendered notification.
type Message struct {
	To      string
	Subject string // ignored by SMS
	Body    string
	HTML    bool // Body is HTML rather than plain text

	// Attachment is optional. SMS senders ignore it.
	Attachment *Attachment
}

// Notifier delivers a single message over one channel.
type Notifier interface {
	// Send blocks until the provider has accepted the message. A non-nil
	// error means nothing is known to have been delivered; callers do not
	// retry.
	Send(ctx context.Context, msg Message) error
}
