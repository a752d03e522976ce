package models

import (
	"fmt"
	"time"
)

// DownloadProgress represents real-time download metrics reported by the
// audio downloader.
type DownloadProgress struct {
	Percent   float64 `json:"percent"`    // 0-100
	TotalSize string  `json:"total_size"` // as printed by the downloader, e.g. "3.45MiB"
	Speed     string  `json:"speed"`      // e.g. "1.20MiB/s"
	ETA       string  `json:"eta"`        // e.g. "00:02"

	Attempt   int           `json:"attempt"` // 1 for the primary strategy, 2 for the fallback
	State     ProgressState `json:"state"`
	StartTime time.Time     `json:"start_time"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProgressState represents the current state of a download
type ProgressState string

const (
	ProgressStateQueued      ProgressState = "queued"
	ProgressStateDownloading ProgressState = "downloading"
	ProgressStateConverting  ProgressState = "converting" // audio extraction after download
	ProgressStateCompleted   ProgressState = "completed"
	ProgressStateFailed      ProgressState = "failed"
)

// ProgressCallback receives progress updates during a download.
type ProgressCallback func(progress *DownloadProgress)

// NewDownloadProgress creates a new progress tracker for the given attempt.
func NewDownloadProgress(attempt int) *DownloadProgress {
	now := time.Now()
	return &DownloadProgress{
		Attempt:   attempt,
		State:     ProgressStateQueued,
		StartTime: now,
		UpdatedAt: now,
	}
}

// SetPercent updates the percentage, clamped to [0, 100].
func (p *DownloadProgress) SetPercent(percent float64) {
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	p.Percent = percent
	p.UpdatedAt = time.Now()
}

// FormatSummary returns a one-line human-readable summary.
func (p *DownloadProgress) FormatSummary() string {
	s := fmt.Sprintf("%5.1f%%", p.Percent)
	if p.TotalSize != "" {
		s += " of " + p.TotalSize
	}
	if p.Speed != "" {
		s += " at " + p.Speed
	}
	if p.ETA != "" {
		s += " ETA " + p.ETA
	}
	return s
}
