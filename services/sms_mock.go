package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockSender logs instead of sending. Used in development.
type MockSender struct {
	logger *zap.Logger
}

func NewMockSender(logger *zap.Logger) *MockSender {
	return &MockSender{logger: logger}
}

func (s *MockSender) Name() string { return "mock" }

func (s *MockSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "mock_" + uuid.NewString()
	s.logger.Info("mock sms sent",
		zap.String("to", to),
		zap.String("message_id", id),
		zap.Int("length", len([]rune(body))))
	return &SendResult{MessageID: id}, nil
}

func (s *MockSender) SendBulk(ctx context.Context, msgs []BulkMessage) (*BulkResult, error) {
	return sendEach(ctx, s, msgs)
}
