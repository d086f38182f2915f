package services

import (
	"context"
	"fmt"

	"stayhub-backend/config"

	"go.uber.org/zap"
)

type SendResult struct {
	MessageID string
}

type BulkMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type BulkResult struct {
	SentCount   int
	FailedCount int
}

// SMSSender is the outbound SMS gateway. Implementations must honour ctx
// cancellation so a slow gateway cannot stall a dispatch batch.
type SMSSender interface {
	Name() string
	Send(ctx context.Context, to, body string) (*SendResult, error)
	SendBulk(ctx context.Context, msgs []BulkMessage) (*BulkResult, error)
}

func NewSMSSender(cfg config.SMSConfig, logger *zap.Logger) (SMSSender, error) {
	switch cfg.Provider {
	case "twilio":
		return NewTwilioSender(cfg), nil
	case "mass":
		return NewMassSender(cfg, nil), nil
	case "mock", "":
		return NewMockSender(logger), nil
	}
	return nil, fmt.Errorf("unknown SMS provider %q", cfg.Provider)
}

// sendEach implements SendBulk on top of Send for gateways without a
// native batch endpoint.
func sendEach(ctx context.Context, s SMSSender, msgs []BulkMessage) (*BulkResult, error) {
	res := &BulkResult{}
	var lastErr error
	for _, m := range msgs {
		if _, err := s.Send(ctx, m.To, m.Body); err != nil {
			res.FailedCount++
			lastErr = err
			continue
		}
		res.SentCount++
	}
	if res.SentCount == 0 && lastErr != nil {
		return res, lastErr
	}
	return res, nil
}
