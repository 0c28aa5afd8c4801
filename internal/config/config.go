package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	LogLevel string

	// RetailCRM
	CRMBaseURL  string
	CRMAPIKey   string
	CRMSiteCode string
	CRMTimeout  time.Duration

	// Telegram operator notifications
	TelegramBotToken string
	TelegramChatID   string
	TelegramTimeout  time.Duration

	// Google Calendar
	GoogleCalendarID      string
	GoogleCredentialsFile string
	GoogleTokenFile       string
	CalendarName          string
	CalendarTimezone      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CRMBaseURL:  strings.TrimRight(getEnv("RETAILCRM_BASE_URL", ""), "/"),
		CRMAPIKey:   getEnv("RETAILCRM_API_KEY", ""),
		CRMSiteCode: getEnv("RETAILCRM_SITE_CODE", ""),
		CRMTimeout:  getEnvAsDuration("RETAILCRM_TIMEOUT", 2*time.Minute),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramTimeout:  getEnvAsDuration("TELEGRAM_TIMEOUT", 5*time.Second),

		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		GoogleTokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		CalendarName:          getEnv("CALENDAR_NAME", "Выезд Биолога"),
		CalendarTimezone:      getEnv("CALENDAR_TIMEZONE", "Europe/Moscow"),
	}
}

// Validate checks that the required RetailCRM settings are present. The
// program must not start any network activity without them.
func (c *Config) Validate() error {
	var missing []string
	if c.CRMBaseURL == "" {
		missing = append(missing, "RETAILCRM_BASE_URL")
	}
	if c.CRMAPIKey == "" {
		missing = append(missing, "RETAILCRM_API_KEY")
	}
	if c.CRMSiteCode == "" {
		missing = append(missing, "RETAILCRM_SITE_CODE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// TelegramConfigured reports whether both Telegram settings are present.
func (c *Config) TelegramConfigured() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
