package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names a config file that takes precedence over the search path.
const ConfigEnvVar = "YTSCRIBE_CONFIG"

const fileHeader = "# ytscribe configuration. Secrets (OPENAI_API_KEY, ...) belong in the environment or .env.\n"

// LoadConfigFile reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected so that typos do not silently fall back to defaults. An empty
// file yields the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the first config file found, or "" (not an error).
// $YTSCRIBE_CONFIG wins, then ./ytscribe.y[a]ml, ~/.ytscribe/config.y[a]ml
// and /etc/ytscribe/config.y[a]ml.
func FindConfigFile() string {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}

	candidates := []string{"ytscribe.yaml", "ytscribe.yml"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, withExts(filepath.Join(home, ".ytscribe", "config"))...)
	}
	candidates = append(candidates, withExts("/etc/ytscribe/config")...)

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func withExts(base string) []string {
	return []string{base + ".yaml", base + ".yml"}
}

// SaveConfigFile writes cfg as YAML, creating parent directories. Secrets
// are never written.
func SaveConfigFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "ytscribe.db"
	}
	return filepath.Join(home, ".ytscribe", "history.db")
}
