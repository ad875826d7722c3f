// internal/infra/config/config.go
package config

import (
	"os"
	"strings"
)

// Config holds the process-wide environment settings.
type Config struct {
	Port string

	// GCP
	ProjectID       string
	CredentialsFile string
	KycBucket       string

	// Local cache
	CachePath string

	// Payment gateway
	PaymentBaseURL     string
	PaymentSecretID    string
	PaymentAPIKeyPlain string // local dev only; Secret Manager wins when set

	// Mail
	SendGridAPIKey string
	MailFrom       string

	// CORS
	AllowedOrigins []string
}

// Load reads the environment into a Config.
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "")

	cfg := &Config{
		Port:            getenvDefault("PORT", "8080"),
		ProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		CredentialsFile: firstNonEmpty(os.Getenv("FIRESTORE_CREDENTIALS_FILE"), os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		KycBucket:       os.Getenv("KYC_BUCKET"),

		CachePath: getenvDefault("LOCAL_CACHE_PATH", "atelier-cache.db"),

		PaymentBaseURL:     os.Getenv("PAYMENT_BASE_URL"),
		PaymentSecretID:    getenvDefault("PAYMENT_SECRET_ID", "payment-gateway-key"),
		PaymentAPIKeyPlain: os.Getenv("PAYMENT_API_KEY"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenvDefault("MAIL_FROM", "no-reply@atelier.example.com"),
	}

	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
