package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// RequiredVars lists the environment variables a storage session needs.
var RequiredVars = []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"}

// Credentials holds the object storage credentials read from the environment
type Credentials struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
	Region          string `env:"AWS_REGION"`
}

// ConfigurationError is returned when the environment lacks variables needed
// to open a storage session.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing environment variables %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(RequiredVars, ", "))
}

// LoadCredentials loads .env files (a missing file is ignored, existing
// environment variables win) and reads the storage credentials.
func LoadCredentials(envFiles ...string) (*Credentials, error) {
	_ = godotenv.Load(envFiles...)

	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Validate reports every required variable that is empty
func (c *Credentials) Validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "AWS_ACCESS_KEY_ID")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "AWS_SECRET_ACCESS_KEY")
	}
	if c.Region == "" {
		missing = append(missing, "AWS_REGION")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
