package models

import (
	"strings"
	"testing"
)

func TestAudioAssetValidate(t *testing.T) {
	tests := []struct {
		name          string
		asset         AudioAsset
		errorContains string
	}{
		{"Valid", AudioAsset{VideoID: "abc", Path: "/tmp/x/abc.mp3", Size: 1024}, ""},
		{"Empty path", AudioAsset{VideoID: "abc"}, "path cannot be empty"},
		{"Negative size", AudioAsset{Path: "/tmp/a.mp3", Size: -1}, "size cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.errorContains == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing %q, got %v", tt.errorContains, err)
			}
		})
	}
}

func TestNewTranscriptionResult(t *testing.T) {
	result, err := NewTranscriptionResult("hello world", "fr", ModeTranslate)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Language != "fr" || result.Mode != ModeTranslate {
		t.Errorf("Unexpected result: %+v", result)
	}

	// Silence produces empty text.
	if _, err := NewTranscriptionResult("", "en", ModeTranscribe); err != nil {
		t.Errorf("Expected empty text to be accepted, got %v", err)
	}

	if _, err := NewTranscriptionResult("x", "en", "summarize"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestRecognitionModeIsValid(t *testing.T) {
	if !ModeTranscribe.IsValid() || !ModeTranslate.IsValid() {
		t.Error("Expected built-in modes to be valid")
	}
	if RecognitionMode("").IsValid() {
		t.Error("Expected empty mode to be invalid")
	}
}
