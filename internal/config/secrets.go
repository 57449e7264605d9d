package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Secrets holds values that never live in config.yaml.
type Secrets struct {
	Ed25519PubKey string `env:"ED25519_PUBKEY"`
	ClerkAPIKey   string `env:"CLERK_API"`

	// ClerkWebhookSecret is the Svix signing secret of the user webhook.
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET"`

	FirebaseProjectID   string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`

	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	PostgresDSN string `env:"POSTGRES_DSN"`

	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
}

func LoadSecrets() (Secrets, error) {
	s, err := env.ParseAs[Secrets]()
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return s, nil
}
