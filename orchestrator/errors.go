package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytscribe/acquirer"
	"ytscribe/asr"
	"ytscribe/captions"
	"ytscribe/translation"
	"ytscribe/videoid"
)

// ErrorKind classifies why a run was aborted or degraded.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindInvalidURL          ErrorKind = "InvalidURL"
	KindModelUnavailable    ErrorKind = "ModelUnavailable"
	KindCaptionsUnavailable ErrorKind = "CaptionsUnavailable"
	KindTranslation         ErrorKind = "TranslationError"
	KindAcquisition         ErrorKind = "AcquisitionError"
	KindTranscription       ErrorKind = "TranscriptionError"
	KindCanceled            ErrorKind = "Canceled"
	KindInternal            ErrorKind = "Internal"
)

// Fatal reports whether the kind aborts a run. Missing captions and a
// failed quick translation only degrade it.
func (k ErrorKind) Fatal() bool {
	return k != KindNone && k != KindCaptionsUnavailable && k != KindTranslation
}

// Classify maps a collaborator error to its kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		acqErr   *acquirer.Error
		trErr    *translation.Error
		asrErr   *asr.TranscriptionError
		stageErr *StageError
	)
	switch {
	case errors.As(err, &stageErr):
		return stageErr.Kind
	case errors.Is(err, videoid.ErrNotFound):
		return KindInvalidURL
	case errors.Is(err, asr.ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, captions.ErrUnavailable):
		return KindCaptionsUnavailable
	case errors.As(err, &trErr):
		return KindTranslation
	case errors.As(err, &acqErr):
		return KindAcquisition
	case errors.As(err, &asrErr):
		return KindTranscription
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// StageError pins a kind on an error that carries no typed cause, such as
// a failure to create the scratch directory.
type StageError struct {
	Kind ErrorKind
	Err  error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// UserMessage renders the message shown for err. Each kind reads
// differently and carries the collaborator's diagnostic text.
func UserMessage(kind ErrorKind, err error) string {
	detail := ""
	if err != nil {
		detail = err.Error()
	}

	switch kind {
	case KindInvalidURL:
		return "Invalid YouTube URL. Please check the URL and try again."
	case KindModelUnavailable:
		return fmt.Sprintf("Error loading Whisper model: %s. Please make sure you've installed Whisper and FFmpeg correctly.", detail)
	case KindCaptionsUnavailable:
		if detail == "" {
			return "No YouTube transcript available. Proceeding with Whisper..."
		}
		return fmt.Sprintf("No YouTube transcript available (%s). Proceeding with Whisper...", detail)
	case KindTranslation:
		return fmt.Sprintf("Quick translation error: %s", detail)
	case KindAcquisition:
		msg := "Could not download audio. YouTube might be blocking automated access."
		var acqErr *acquirer.Error
		if errors.As(err, &acqErr) && strings.TrimSpace(acqErr.Stderr) != "" {
			return msg + " Error details: " + strings.TrimSpace(acqErr.Stderr)
		}
		return msg + " Error details: " + detail
	case KindTranscription:
		return fmt.Sprintf("Error during Whisper processing: %s", detail)
	case KindCanceled:
		return "Run cancelled."
	case KindNone:
		return ""
	default:
		return fmt.Sprintf("Error processing video: %s", detail)
	}
}
