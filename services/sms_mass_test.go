package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"stayhub-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMassSender_SendBulkPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewMassSender(config.SMSConfig{MassURL: srv.URL, MassMsgType: "LMS", MassTestMode: true}, srv.Client())

	res, err := sender.SendBulk(context.Background(), []BulkMessage{
		{To: "010-1234-5678", Body: "first"},
		{To: "010 9876 5432", Body: "second"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SentCount)

	assert.Equal(t, map[string]string{
		"msg_type":    "LMS",
		"cnt":         "2",
		"testmode_yn": "Y",
		"rec_1":       "01012345678",
		"msg_1":       "first",
		"rec_2":       "01098765432",
		"msg_2":       "second",
	}, got)
}

func TestMassSender_Errors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	sender := NewMassSender(config.SMSConfig{MassURL: srv.URL, MassMsgType: "SMS"}, srv.Client())

	_, err := sender.Send(context.Background(), "01000000000", "hello")
	assert.Error(t, err)

	status.Store(http.StatusBadGateway)
	res, err := sender.SendBulk(context.Background(), []BulkMessage{{To: "01000000000", Body: "hello"}})
	assert.Error(t, err)
	assert.Equal(t, 1, res.FailedCount)

	_, err = sender.SendBulk(context.Background(), nil)
	assert.Error(t, err)
}

func TestMassSender_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewMassSender(config.SMSConfig{MassURL: srv.URL, MassMsgType: "SMS"}, srv.Client())
	for i := 0; i < 10; i++ {
		_, err := sender.Send(context.Background(), "01000000000", "hello")
		assert.Error(t, err)
	}
	assert.Equal(t, int32(6), hits.Load(), "breaker stops calling the gateway once open")
}

func TestMockSender(t *testing.T) {
	sender := NewMockSender(zap.NewNop())
	res, err := sender.Send(context.Background(), "01000000000", "hi")
	require.NoError(t, err)
	assert.Contains(t, res.MessageID, "mock_")

	bulk, err := sender.SendBulk(context.Background(), []BulkMessage{{To: "1", Body: "a"}, {To: "2", Body: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, bulk.SentCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sender.Send(ctx, "01000000000", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSMSSender(t *testing.T) {
	s, err := NewSMSSender(config.SMSConfig{Provider: "mock"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mock", s.Name())

	s, err = NewSMSSender(config.SMSConfig{Provider: "mass", MassURL: "http://localhost"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mass", s.Name())

	s, err = NewSMSSender(config.SMSConfig{Provider: "twilio", TwilioAccountSID: "AC123", TwilioAuthToken: "t"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "twilio", s.Name())

	_, err = NewSMSSender(config.SMSConfig{Provider: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
