package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secrets holds credentials and endpoints read from the environment.
type Secrets struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	RedisURL     string `envconfig:"YTSCRIBE_REDIS_URL"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadSecrets reads Secrets from the environment after loading any .env
// files given (a missing file is not an error).
func LoadSecrets(envFiles ...string) (Secrets, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return Secrets{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return s, nil
}

// ApplySecrets copies secrets into the config. Environment values win over
// file values for the settings they also cover.
func (c *Config) ApplySecrets(s Secrets) {
	c.Secrets = s
	if s.RedisURL != "" {
		c.Cache.RedisURL = s.RedisURL
	}
	if s.OTLPEndpoint != "" {
		c.Telemetry.OTLPEndpoint = s.OTLPEndpoint
	}
}
