package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// LoadConfig loads configuration with priority: CLI flags > environment >
// config file > defaults. fs must have been set up with RegisterFlags and
// parsed.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()

	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = FindConfigFile()
	}

	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg = fileCfg
	}

	envFile, _ := fs.GetString("env-file")
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	secrets, err := LoadSecrets(envFiles...)
	if err != nil {
		return nil, err
	}
	cfg.ApplySecrets(secrets)

	if err := cfg.MergeFromFlags(fs); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
