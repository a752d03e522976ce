package models

import (
	"strings"
	"testing"
)

func TestNewVideoID(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantError bool
	}{
		{"Valid", "abc123", false},
		{"Empty", "", true},
		{"Whitespace only", "   ", true},
		{"Embedded space", "abc 123", true},
		{"Dashes and underscores", "dQw4w9WgXcQ_-", false},
		{"Parent directory", "../escaped", true},
		{"Path separator", "a/b", true},
		{"Dot", "abc.mp3", true},
		{"Query syntax", "a&b=c", true},
		{"Fragment", "a#b", true},
		{"Non-ASCII", "abcé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewVideoID(tt.raw)
			if tt.wantError {
				if err == nil {
					t.Errorf("Expected error for %q, got id %q", tt.raw, id)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if id.String() != tt.raw {
				t.Errorf("Expected %q, got %q", tt.raw, id)
			}
		})
	}
}

func TestTranscriptDocument_Text(t *testing.T) {
	doc := &TranscriptDocument{
		VideoID:  "abc123",
		Language: "en",
		Segments: []TranscriptSegment{
			{Start: 0, Duration: 1.5, Text: "hello"},
			{Start: 1.5, Duration: 2, Text: "world"},
			{Start: 12.25, Duration: 1, Text: "again"},
		},
	}

	want := "0.00 - hello\n1.50 - world\n12.25 - again"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q; want %q", got, want)
	}
}

func TestTranscriptDocument_TextEmpty(t *testing.T) {
	doc := &TranscriptDocument{VideoID: "abc123", Language: "en"}
	if got := doc.Text(); got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
	if doc.Duration() != 0 {
		t.Errorf("Expected zero duration, got %.2f", doc.Duration())
	}
}

func TestNewTranscriptDocument_Validation(t *testing.T) {
	tests := []struct {
		name          string
		language      string
		segments      []TranscriptSegment
		errorContains string
	}{
		{"Valid", "en", []TranscriptSegment{{Start: 0, Duration: 1, Text: "a"}}, ""},
		{"Missing language", "", nil, "language cannot be empty"},
		{"Negative start", "en", []TranscriptSegment{{Start: -1, Text: "a"}}, "start cannot be negative"},
		{"Negative duration", "en", []TranscriptSegment{{Start: 0, Duration: -1, Text: "a"}}, "duration cannot be negative"},
		{"Out of order", "en", []TranscriptSegment{{Start: 5, Text: "a"}, {Start: 2, Text: "b"}}, "before previous segment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewTranscriptDocument("abc123", tt.language, TranscriptManual, tt.segments)
			if tt.errorContains == "" {
				if err != nil {
					t.Fatalf("Expected no error but got: %v", err)
				}
				if doc.Duration() != 1 {
					t.Errorf("Expected duration 1, got %.2f", doc.Duration())
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errorContains)
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error to contain '%s', but got '%s'", tt.errorContains, err.Error())
			}
		})
	}
}
