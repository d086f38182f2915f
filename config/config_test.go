package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "postgres://localhost/stayhub")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Asia/Seoul", cfg.Scheduler.Timezone)
	assert.Equal(t, 4, cfg.Scheduler.DispatchConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.SendTimeout)
	assert.Equal(t, "mock", cfg.SMS.Provider)
	assert.Equal(t, "LMS", cfg.SMS.MassMsgType)
	assert.Equal(t, 24, cfg.Auth.JWTExpiryHours)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("BUSINESS_TIMEZONE", "UTC")
	t.Setenv("DISPATCH_CONCURRENCY", "8")
	t.Setenv("SMS_SEND_TIMEOUT", "3s")
	t.Setenv("SMS_PROVIDER", "mass")
	t.Setenv("SMS_MASS_URL", "https://sms.example.com/send")
	t.Setenv("SMS_TEST_MODE", "true")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, http://localhost:3000 ,")
	t.Setenv("PARTY_LOCATION", "루프탑")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.Equal(t, 8, cfg.Scheduler.DispatchConcurrency)
	assert.Equal(t, 3*time.Second, cfg.Scheduler.SendTimeout)
	assert.Equal(t, "mass", cfg.SMS.Provider)
	assert.True(t, cfg.SMS.MassTestMode)
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, cfg.AllowedOrigins())
	assert.Equal(t, "루프탑", cfg.Party.Location)
	assert.Empty(t, cfg.Party.PartyTime)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing db url":       {"DB_URL": ""},
		"missing jwt secret":   {"JWT_SECRET": ""},
		"unknown provider":     {"SMS_PROVIDER": "fax"},
		"mass without url":     {"SMS_PROVIDER": "mass", "SMS_MASS_URL": ""},
		"twilio without creds": {"SMS_PROVIDER": "twilio", "TWILIO_ACCOUNT_SID": ""},
		"bad timezone":         {"BUSINESS_TIMEZONE": "Mars/Olympus"},
		"zero concurrency":     {"DISPATCH_CONCURRENCY": "0"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
