// Package sms provides the Twilio-backed notify.Notifier used for text
// message receipts.
package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/nyashahama/receipt-dispatch-backend/internal/notify"
)

// messageCreator is the one Twilio call this package makes. *twilioapi.ApiService
// satisfies it; tests substitute a recorder.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// twilioSender is the concrete Notifier backed by the Twilio Messages API.
type twilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender returns a Notifier that sends from the given Twilio number.
// Empty credentials are accepted here and rejected by Twilio at send time.
func NewTwilioSender(accountSID, authToken, from string) notify.Notifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &twilioSender{api: client.Api, from: from}
}

// Send delivers msg.Body as a text message. Subject, HTML and Attachment are
// ignored. The Twilio SDK takes no context, so ctx is only checked before the
// call.
func (s *twilioSender) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sms: %w", err)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("sms: twilio create message: %w", err)
	}
	return nil
}
