package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"greekledger/internal/core"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMS sends text messages through Twilio from a fixed sender number.
type SMS struct {
	from string
	api  messageCreator
}

// NewSMS returns a Twilio sender, or a Disabled one when any credential is
// missing.
func NewSMS(accountSID, authToken, from string) MessageSender {
	if accountSID == "" || authToken == "" {
		return NewDisabled(core.ChannelSMS, "twilio not configured")
	}
	if from == "" {
		return NewDisabled(core.ChannelSMS, "TWILIO_PHONE_NUMBER not configured")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMS{from: from, api: client.Api}
}

func (s *SMS) Channel() core.Channel { return core.ChannelSMS }

func (s *SMS) Enabled() bool { return true }

func (s *SMS) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("phone number required: %w", core.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	to := NormalizePhone(msg.To)
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	slog.DebugContext(ctx, "SMS sent", "to", to, "sid", sid)
	return nil
}
