package asr

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"ytscribe/models"
)

// OpenAIWhisper sends audio to the hosted Whisper API.
type OpenAIWhisper struct {
	client *openai.Client
	model  string
}

// NewOpenAIWhisper creates the backend from a client config.
func NewOpenAIWhisper(cfg openai.ClientConfig, model string) *OpenAIWhisper {
	if model == "" || !strings.HasPrefix(model, "whisper") {
		model = openai.Whisper1
	}
	return &OpenAIWhisper{client: openai.NewClientWithConfig(cfg), model: model}
}

// OpenAILoader returns a Loader that requires an API key.
func OpenAILoader(apiKey, model string) Loader {
	return func(context.Context) (Recognizer, error) {
		if apiKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return NewOpenAIWhisper(openai.DefaultConfig(apiKey), model), nil
	}
}

// Recognize implements Recognizer.
func (o *OpenAIWhisper) Recognize(ctx context.Context, audioPath string, mode models.RecognitionMode) (*models.TranscriptionResult, error) {
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	start := time.Now()
	var (
		resp openai.AudioResponse
		err  error
	)
	if mode == models.ModeTranslate {
		resp, err = o.client.CreateTranslation(ctx, req)
	} else {
		resp, err = o.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return nil, &TranscriptionError{Backend: "openai", Mode: mode, Err: err}
	}

	language := resp.Language
	if language == "" {
		language = UnknownLanguage
	}
	result, err := models.NewTranscriptionResult(strings.TrimSpace(resp.Text), language, mode)
	if err != nil {
		return nil, &TranscriptionError{Backend: "openai", Mode: mode, Err: err}
	}
	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, segment(s.Start, s.End, strings.TrimSpace(s.Text)))
	}
	result.Elapsed = time.Since(start)
	return result, nil
}
