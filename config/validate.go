package config

import (
	"fmt"
	"strings"

	"ytscribe/chunker"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.TargetLanguage) == "" {
		errors = append(errors, "target language is required")
	}

	if !isOneOf(c.LogLevel, LogLevelValues()) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
			c.LogLevel, strings.Join(LogLevelValues(), ", ")))
	}

	if err := c.Downloader.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("downloader config: %v", err))
	}

	if err := c.Translation.Validate(c.Secrets); err != nil {
		errors = append(errors, fmt.Sprintf("translation config: %v", err))
	}

	if err := c.Whisper.Validate(c.Secrets); err != nil {
		errors = append(errors, fmt.Sprintf("whisper config: %v", err))
	}

	if c.Captions.Retries < 0 {
		errors = append(errors, "caption retries cannot be negative")
	}

	if c.Server.MaxConcurrentDownloads <= 0 {
		errors = append(errors, "max concurrent downloads must be positive")
	}
	if c.Server.MaxConcurrentTranscriptions <= 0 {
		errors = append(errors, "max concurrent transcriptions must be positive")
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		errors = append(errors, "history path is required when history is enabled")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errors = append(errors, "cache ttl must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if downloader configuration is valid
func (dc *DownloaderConfig) Validate() error {
	var errors []string

	if dc.Binary == "" {
		errors = append(errors, "binary is required")
	}
	if !isOneOf(dc.AudioFormat, AudioFormatValues()) {
		errors = append(errors, fmt.Sprintf("audio format must be one of: %s", strings.Join(AudioFormatValues(), ", ")))
	}
	if dc.FallbackClient == "" {
		errors = append(errors, "fallback client is required")
	}
	if dc.Timeout < 0 {
		errors = append(errors, "timeout cannot be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// Validate checks if translation configuration is valid
func (tc *TranslationConfig) Validate(s Secrets) error {
	var errors []string

	if !isOneOf(tc.Provider, ProviderValues()) {
		errors = append(errors, fmt.Sprintf("provider must be one of: %s", strings.Join(ProviderValues(), ", ")))
	}
	if tc.Provider == "openai" && s.OpenAIAPIKey == "" {
		errors = append(errors, "OPENAI_API_KEY is required for the openai provider")
	}
	if tc.ChunkSize < chunker.MinChunkSize || tc.ChunkSize > chunker.MaxChunkSize {
		errors = append(errors, fmt.Sprintf("chunk size must be between %d and %d", chunker.MinChunkSize, chunker.MaxChunkSize))
	}
	if tc.RequestsPerSecond <= 0 {
		errors = append(errors, "requests per second must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// Validate checks if whisper configuration is valid
func (wc *WhisperConfig) Validate(s Secrets) error {
	var errors []string

	if !isOneOf(wc.Backend, BackendValues()) {
		errors = append(errors, fmt.Sprintf("backend must be one of: %s", strings.Join(BackendValues(), ", ")))
	}
	if wc.Backend == "local" && wc.Binary == "" {
		errors = append(errors, "binary is required for the local backend")
	}
	if wc.Backend == "openai" && s.OpenAIAPIKey == "" {
		errors = append(errors, "OPENAI_API_KEY is required for the openai backend")
	}
	if wc.Model == "" {
		errors = append(errors, "model is required")
	}
	if wc.Timeout < 0 {
		errors = append(errors, "timeout cannot be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}
