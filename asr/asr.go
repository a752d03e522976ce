// Package asr runs speech recognition (Whisper) over downloaded audio.
package asr

import (
	"context"
	"errors"
	"fmt"

	"ytscribe/models"
)

// UnknownLanguage is reported when the backend does not detect a language.
const UnknownLanguage = "unknown"

// ErrModelUnavailable is matched by every model loading failure.
var ErrModelUnavailable = errors.New("speech recognition model unavailable")

// Recognizer turns an audio file into text.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string, mode models.RecognitionMode) (*models.TranscriptionResult, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, audioPath string, mode models.RecognitionMode) (*models.TranscriptionResult, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(ctx context.Context, audioPath string, mode models.RecognitionMode) (*models.TranscriptionResult, error) {
	return f(ctx, audioPath, mode)
}

// TranscriptionError reports a recognition failure on a loaded model.
type TranscriptionError struct {
	Backend string
	Mode    models.RecognitionMode
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Mode, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// segment converts a start/end pair into a transcript segment.
func segment(start, end float64, text string) models.TranscriptSegment {
	d := end - start
	if d < 0 {
		d = 0
	}
	return models.TranscriptSegment{Start: start, Duration: d, Text: text}
}
