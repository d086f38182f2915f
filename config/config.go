// Package config loads process configuration from the environment.
//
// Values come from the OS environment, optionally seeded from a .env file,
// and are validated once at startup. A missing required value fails fast.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	Database  DatabaseConfig
	Scheduler SchedulerConfig
	SMS       SMSConfig
	Auth      AuthConfig
	Party     PartyConfig
}

type DatabaseConfig struct {
	URL             string        `envconfig:"DB_URL" validate:"required"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"50"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

type SchedulerConfig struct {
	Timezone            string        `envconfig:"BUSINESS_TIMEZONE" default:"Asia/Seoul" validate:"required"`
	DispatchConcurrency int           `envconfig:"DISPATCH_CONCURRENCY" default:"4" validate:"min=1,max=64"`
	SendTimeout         time.Duration `envconfig:"SMS_SEND_TIMEOUT" default:"10s"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

type SMSConfig struct {
	Provider string `envconfig:"SMS_PROVIDER" default:"mock" validate:"oneof=mock twilio mass"`

	TwilioAccountSID     string `envconfig:"TWILIO_ACCOUNT_SID" validate:"required_if=Provider twilio"`
	TwilioAuthToken      string `envconfig:"TWILIO_AUTH_TOKEN" validate:"required_if=Provider twilio"`
	TwilioPhoneNumber    string `envconfig:"TWILIO_PHONE_NUMBER" validate:"required_if=Provider twilio"`
	TwilioWhatsAppNumber string `envconfig:"TWILIO_WHATSAPP_NUMBER"`

	MassURL      string `envconfig:"SMS_MASS_URL" validate:"required_if=Provider mass"`
	MassMsgType  string `envconfig:"SMS_MSG_TYPE" default:"LMS" validate:"oneof=SMS LMS MMS"`
	MassTestMode bool   `envconfig:"SMS_TEST_MODE" default:"false"`
}

type AuthConfig struct {
	JWTSecret         string `envconfig:"JWT_SECRET" validate:"required"`
	JWTExpiryHours    int    `envconfig:"JWT_EXPIRY_HOURS" default:"24" validate:"min=1"`
	AdminUsername     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
}

// PartyConfig overrides the party template defaults. Empty fields keep the
// built-in values.
type PartyConfig struct {
	PriceInfo       string `envconfig:"PARTY_PRICE_INFO"`
	PartyTime       string `envconfig:"PARTY_TIME"`
	SecondPartyTime string `envconfig:"PARTY_SECOND_TIME"`
	Location        string `envconfig:"PARTY_LOCATION"`
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	// godotenv does not override variables already set in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return nil, fmt.Errorf("validate config: BUSINESS_TIMEZONE %q: %w", cfg.Scheduler.Timezone, err)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
