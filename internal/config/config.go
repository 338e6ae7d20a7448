package config

import (
	"fmt"
	"os"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	ResendAPIKey string
	EmailFrom    string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	CountryCode string
	TrunkPrefix string

	DashboardURL string
	Timezone     string
}

// Load reads configuration from the environment. Provider credentials may be
// absent; the affected channel is then reported as not configured at send
// time instead of failing startup.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		EmailFrom:          getenv("EMAIL_FROM", "ComplianceHub <kolajo@forecourtlimited.com>"),
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: getenv("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886"),
		CountryCode:        getenv("PHONE_COUNTRY_CODE", "+234"),
		TrunkPrefix:        getenv("PHONE_TRUNK_PREFIX", "0"),
		DashboardURL:       getenv("DASHBOARD_URL", "https://compliance.forecourtlimited.com/dashboard"),
		Timezone:           getenv("TIMEZONE", "Africa/Lagos"),
	}

	if cfg.DatabaseURL == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			return nil, fmt.Errorf("neither DATABASE_URL nor DB_HOST is set")
		}
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host, getenv("DB_PORT", "5432"), os.Getenv("DB_NAME"))
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
