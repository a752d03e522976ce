package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_AllLayersPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ytscribe.yaml")
	envPath := filepath.Join(tmpDir, "test.env")

	configContent := `target_language: de
translation:
  chunk_size: 400
whisper:
  model: small
cache:
  redis_url: redis://file-host:6379/0
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config: %v", err)
	}
	if err := os.WriteFile(envPath, []byte("YTSCRIBE_REDIS_URL=redis://env-host:6379/1\n"), 0644); err != nil {
		t.Fatalf("Failed to create env file: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	// godotenv does not override variables already set; make sure it is unset.
	t.Setenv("YTSCRIBE_REDIS_URL", "")
	os.Unsetenv("YTSCRIBE_REDIS_URL")

	fs := newFlagSet(t,
		"--config", configPath,
		"--env-file", envPath,
		"--chunk-size", "800",
	)

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Flag wins over file
	if cfg.Translation.ChunkSize != 800 {
		t.Errorf("Expected chunk size 800 (from flag), got %d", cfg.Translation.ChunkSize)
	}
	// File wins over defaults
	if cfg.TargetLanguage != "de" {
		t.Errorf("Expected target 'de' (from file), got '%s'", cfg.TargetLanguage)
	}
	if cfg.Whisper.Model != "small" {
		t.Errorf("Expected model 'small' (from file), got '%s'", cfg.Whisper.Model)
	}
	// Environment wins over file
	if cfg.Cache.RedisURL != "redis://env-host:6379/1" {
		t.Errorf("Expected redis url from env, got '%s'", cfg.Cache.RedisURL)
	}
	if cfg.Secrets.OpenAIAPIKey != "sk-from-env" {
		t.Errorf("Expected API key from env, got '%s'", cfg.Secrets.OpenAIAPIKey)
	}
	// Defaults where nothing is set
	if cfg.Downloader.Binary != "yt-dlp" {
		t.Errorf("Expected default downloader, got '%s'", cfg.Downloader.Binary)
	}
}

func TestLoadConfig_ValidationError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("whisper:\n  backend: cloud\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fs := newFlagSet(t, "--config", configPath, "--env-file", filepath.Join(tmpDir, "missing.env"))
	if _, err := LoadConfig(fs); err == nil {
		t.Fatal("Expected validation error")
	}
}

func TestLoadConfig_MissingConfigFile(t *testing.T) {
	fs := newFlagSet(t, "--config", "/nonexistent/ytscribe.yaml", "--env-file", "")
	if _, err := LoadConfig(fs); err == nil {
		t.Fatal("Expected error for explicit missing config file")
	}
}
