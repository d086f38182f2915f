package services

import (
	"context"
	"errors"
	"strings"

	"stayhub-backend/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioSender struct {
	client      *twilio.RestClient
	from        string
	whatsAppNum string
}

func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}),
		from:        cfg.TwilioPhoneNumber,
		whatsAppNum: cfg.TwilioWhatsAppNumber,
	}
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)

	// Use WhatsApp when a sender is configured and the number is E.164.
	if s.whatsAppNum != "" && strings.HasPrefix(to, "+") {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + s.whatsAppNum)
	} else {
		params.SetTo(to)
		params.SetFrom(s.from)
	}

	type outcome struct {
		resp *twilioApi.ApiV2010Message
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := s.client.Api.CreateMessage(params)
		done <- outcome{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.resp == nil || out.resp.Sid == nil {
			return nil, errors.New("twilio: no message SID returned")
		}
		return &SendResult{MessageID: *out.resp.Sid}, nil
	}
}

func (s *TwilioSender) SendBulk(ctx context.Context, msgs []BulkMessage) (*BulkResult, error) {
	return sendEach(ctx, s, msgs)
}
