// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// Calendar backends selectable with CALENDAR_BACKEND.
const (
	BackendGoogle  = "google"
	BackendCalDAV  = "caldav"
	BackendWebhook = "webhook"
)

// Config holds every runtime setting.
type Config struct {
	Port     int    `validate:"min=1,max=65535"`
	LogLevel string `validate:"oneof=debug info warn error"`

	LLMProvider string `validate:"oneof=openai ollama"`
	LLMModel    string `validate:"required"`
	LLMAPIKey   string
	LLMBaseURL  string `validate:"omitempty,url"`

	ExtractionTimeout time.Duration `validate:"gt=0"`
	ProviderTimeout   time.Duration `validate:"gt=0"`

	CalendarBackend string `validate:"oneof=google caldav webhook"`

	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccount      string

	CalDAVEndpoint     string `validate:"omitempty,url"`
	CalDAVUsername     string `validate:"required_if=CalendarBackend caldav"`
	CalDAVPassword     string `validate:"required_if=CalendarBackend caldav"`
	CalDAVCalendarName string `validate:"required_if=CalendarBackend caldav"`

	WebhookURL   string `validate:"required_if=CalendarBackend webhook"`
	WebhookToken string

	PrimaryTimezone string
	Location        *time.Location `validate:"-"`
}

// Load builds a Config from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMBaseURL:         os.Getenv("LLM_BASE_URL"),
		CalendarBackend:    strings.ToLower(getEnv("CALENDAR_BACKEND", BackendGoogle)),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleAccount:      os.Getenv("GOOGLE_ACCOUNT"),
		CalDAVEndpoint:     os.Getenv("CALDAV_ENDPOINT"),
		CalDAVUsername:     os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:     os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendarName: os.Getenv("CALDAV_CALENDAR_NAME"),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),
		WebhookToken:       os.Getenv("WEBHOOK_TOKEN"),
		PrimaryTimezone:    getEnv("PRIMARY_TIMEZONE", "UTC"),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8000")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.ExtractionTimeout, err = time.ParseDuration(getEnv("EXTRACTION_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid EXTRACTION_TIMEOUT: %w", err)
	}
	if cfg.ProviderTimeout, err = time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(cfg.PrimaryTimezone); err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", cfg.PrimaryTimezone, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its validate tag.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
