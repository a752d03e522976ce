package models

import (
	"strings"
	"testing"
)

func TestNewDownloadProgress(t *testing.T) {
	p := NewDownloadProgress(2)
	if p.Attempt != 2 {
		t.Errorf("Expected attempt 2, got %d", p.Attempt)
	}
	if p.State != ProgressStateQueued {
		t.Errorf("Expected state queued, got %s", p.State)
	}
	if p.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}
}

func TestDownloadProgress_SetPercent(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Zero", 0, 0},
		{"Half", 50.5, 50.5},
		{"Complete", 100, 100},
		{"Over 100 clamps", 120, 100},
		{"Negative clamps", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDownloadProgress(1)
			p.SetPercent(tt.input)
			if p.Percent != tt.expected {
				t.Errorf("Expected %.1f, got %.1f", tt.expected, p.Percent)
			}
		})
	}
}

func TestDownloadProgress_FormatSummary(t *testing.T) {
	p := NewDownloadProgress(1)
	p.SetPercent(42.3)
	p.TotalSize = "3.45MiB"
	p.Speed = "1.20MiB/s"
	p.ETA = "00:02"

	summary := p.FormatSummary()
	for _, want := range []string{"42.3%", "of 3.45MiB", "at 1.20MiB/s", "ETA 00:02"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary %q missing %q", summary, want)
		}
	}

	bare := NewDownloadProgress(1)
	if got := bare.FormatSummary(); strings.Contains(got, "ETA") {
		t.Errorf("Expected no ETA in %q", got)
	}
}
