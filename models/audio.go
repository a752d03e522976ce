package models

import (
	"fmt"
	"strings"
	"time"
)

// AudioAsset is a downloaded audio file living in a per-request scratch
// directory. It is removed together with that directory.
type AudioAsset struct {
	VideoID  VideoID `json:"video_id"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"` // seconds, 0 when unknown
}

// Validate checks the asset fields.
func (a *AudioAsset) Validate() error {
	if strings.TrimSpace(a.Path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if a.Size < 0 {
		return fmt.Errorf("size cannot be negative")
	}
	return nil
}

// RecognitionMode selects what the speech recognizer produces.
type RecognitionMode string

const (
	// ModeTranscribe keeps the spoken language.
	ModeTranscribe RecognitionMode = "transcribe"
	// ModeTranslate produces English text regardless of the spoken language.
	ModeTranslate RecognitionMode = "translate"
)

// IsValid reports whether m is a known mode.
func (m RecognitionMode) IsValid() bool {
	return m == ModeTranscribe || m == ModeTranslate
}

// TranscriptionResult is the output of the speech recognizer for one
// audio asset.
//
// Language is the language the recognizer detected in the audio. In
// translate mode the text itself is English.
type TranscriptionResult struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Mode     RecognitionMode     `json:"mode"`
	Segments []TranscriptSegment `json:"segments,omitempty"`
	Elapsed  time.Duration       `json:"elapsed"`
}

// NewTranscriptionResult creates a validated result.
//
// Example:
//
//	result, err := models.NewTranscriptionResult("hello world", "en", models.ModeTranscribe)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewTranscriptionResult(text, language string, mode RecognitionMode) (*TranscriptionResult, error) {
	r := &TranscriptionResult{Text: text, Language: language, Mode: mode}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcription result: %w", err)
	}
	return r, nil
}

// Validate checks the result for consistency.
//
// Empty text is allowed since silent audio produces no words, but the
// mode must be known.
func (r *TranscriptionResult) Validate() error {
	if !r.Mode.IsValid() {
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	return nil
}
