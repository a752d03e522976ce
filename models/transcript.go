package models

import (
	"fmt"
	"strings"
)

// TranscriptKind tells whether a caption track was written by a person or
// generated by YouTube's speech recognition.
type TranscriptKind string

const (
	TranscriptManual    TranscriptKind = "manual"
	TranscriptGenerated TranscriptKind = "generated"
)

// TranscriptSegment is one timed caption line.
type TranscriptSegment struct {
	Start    float64 `json:"start"`    // seconds from the beginning of the video
	Duration float64 `json:"duration"` // seconds
	Text     string  `json:"text"`
}

// Validate checks the segment timing.
func (s TranscriptSegment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

// TranscriptDocument is a caption track for one video.
//
// Segments are ordered by start time. Documents are produced once by the
// captions fetcher and are never mutated afterwards.
type TranscriptDocument struct {
	VideoID  VideoID             `json:"video_id"`
	Language string              `json:"language"`
	Kind     TranscriptKind      `json:"kind"`
	Segments []TranscriptSegment `json:"segments"`
}

// NewTranscriptDocument creates a validated document.
//
// Returns an error if:
//   - language is empty
//   - a segment has negative timing
//   - segments are not ordered by start time
func NewTranscriptDocument(id VideoID, language string, kind TranscriptKind, segments []TranscriptSegment) (*TranscriptDocument, error) {
	doc := &TranscriptDocument{
		VideoID:  id,
		Language: language,
		Kind:     kind,
		Segments: segments,
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcript: %w", err)
	}
	return doc, nil
}

// Validate checks the document invariants.
func (d *TranscriptDocument) Validate() error {
	if strings.TrimSpace(d.Language) == "" {
		return fmt.Errorf("language cannot be empty")
	}
	prev := 0.0
	for i, seg := range d.Segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		if seg.Start < prev {
			return fmt.Errorf("segment %d starts at %.2f before previous segment at %.2f", i, seg.Start, prev)
		}
		prev = seg.Start
	}
	return nil
}

// Text renders the document as "<start> - <text>" lines, start formatted
// with two decimals. This rendering is what gets shown and translated.
func (d *TranscriptDocument) Text() string {
	lines := make([]string, 0, len(d.Segments))
	for _, seg := range d.Segments {
		lines = append(lines, fmt.Sprintf("%.2f - %s", seg.Start, seg.Text))
	}
	return strings.Join(lines, "\n")
}

// Duration returns the end of the last segment.
func (d *TranscriptDocument) Duration() float64 {
	if len(d.Segments) == 0 {
		return 0
	}
	last := d.Segments[len(d.Segments)-1]
	return last.Start + last.Duration
}
