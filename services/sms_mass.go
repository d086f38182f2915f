package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"stayhub-backend/config"
	"stayhub-backend/utils"

	"github.com/sony/gobreaker/v2"
)

// MassSender talks to the bulk HTTP gateway. Its JSON payload carries
// numbered recipient and body fields: rec_1/msg_1 ... rec_N/msg_N.
type MassSender struct {
	url      string
	msgType  string
	testMode bool
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
}

func NewMassSender(cfg config.SMSConfig, client *http.Client) *MassSender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &MassSender{
		url:      cfg.MassURL,
		msgType:  cfg.MassMsgType,
		testMode: cfg.MassTestMode,
		client:   client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "sms-mass",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
}

func (s *MassSender) Name() string { return "mass" }

func (s *MassSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	if _, err := s.SendBulk(ctx, []BulkMessage{{To: to, Body: body}}); err != nil {
		return nil, err
	}
	return &SendResult{}, nil
}

func (s *MassSender) SendBulk(ctx context.Context, msgs []BulkMessage) (*BulkResult, error) {
	if len(msgs) == 0 {
		return nil, errors.New("no messages provided")
	}

	payload := s.payload(msgs)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := s.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("sms gateway: status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return &BulkResult{FailedCount: len(msgs)}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &BulkResult{FailedCount: len(msgs)}, fmt.Errorf("sms gateway: status %d", resp.StatusCode)
	}
	return &BulkResult{SentCount: len(msgs)}, nil
}

func (s *MassSender) payload(msgs []BulkMessage) map[string]string {
	testMode := "N"
	if s.testMode {
		testMode = "Y"
	}

	p := map[string]string{
		"msg_type":    s.msgType,
		"cnt":         strconv.Itoa(len(msgs)),
		"testmode_yn": testMode,
	}
	for i, m := range msgs {
		n := strconv.Itoa(i + 1)
		p["rec_"+n] = utils.NormalizePhone(m.To)
		p["msg_"+n] = m.Body
	}
	return p
}
