package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ytscribe/command"
	"ytscribe/command/whisper"
	"ytscribe/internal/logging"
	"ytscribe/models"
)

// LocalOptions configures the whisper CLI backend.
type LocalOptions struct {
	Binary       string
	FFmpegBinary string
	Model        string
	Timeout      time.Duration
}

// LocalWhisper runs the openai-whisper command line tool.
type LocalWhisper struct {
	opts   LocalOptions
	runner command.Runner
	logger *zap.SugaredLogger
}

// NewLocalWhisper creates the backend without checking for the binaries.
func NewLocalWhisper(runner command.Runner, opts LocalOptions, logger *zap.SugaredLogger) *LocalWhisper {
	if opts.Binary == "" {
		opts.Binary = "whisper"
	}
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.Model == "" {
		opts.Model = "base"
	}
	return &LocalWhisper{opts: opts, runner: runner, logger: logging.OrNop(logger)}
}

// LocalLoader checks that whisper and ffmpeg are installed and returns the
// backend. It is meant for ModelHolder.
func LocalLoader(runner command.Runner, opts LocalOptions, logger *zap.SugaredLogger) Loader {
	return func(context.Context) (Recognizer, error) {
		w := NewLocalWhisper(runner, opts, logger)
		for _, bin := range []string{w.opts.Binary, w.opts.FFmpegBinary} {
			if _, err := exec.LookPath(bin); err != nil {
				return nil, fmt.Errorf("%s not found in PATH: %w", bin, err)
			}
		}
		return w, nil
	}
}

// whisperOutput is the document written by --output_format json.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Recognize implements Recognizer. The JSON result is written to a scratch
// directory next to the audio file, inside the caller's scoped directory.
func (w *LocalWhisper) Recognize(ctx context.Context, audioPath string, mode models.RecognitionMode) (*models.TranscriptionResult, error) {
	fail := func(err error) error {
		return &TranscriptionError{Backend: "whisper", Mode: mode, Err: err}
	}

	outDir := filepath.Join(filepath.Dir(audioPath), "whisper")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fail(fmt.Errorf("create output dir: %w", err))
	}

	cmd := whisper.NewWhisperBuilder(audioPath, outDir).
		SetBinary(w.opts.Binary).
		SetModel(w.opts.Model).
		SetMode(mode)

	if w.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}

	if dry, err := cmd.DryRun(); err == nil {
		w.logger.Debugw("running whisper", "command", dry)
	}

	start := time.Now()
	if _, err := w.runner.Run(ctx, cmd, nil); err != nil {
		return nil, fail(err)
	}

	data, err := os.ReadFile(cmd.GetOutputPath())
	if err != nil {
		return nil, fail(fmt.Errorf("read whisper output: %w", err))
	}
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fail(fmt.Errorf("parse whisper output: %w", err))
	}

	language := out.Language
	if language == "" {
		language = UnknownLanguage
	}
	result, err := models.NewTranscriptionResult(strings.TrimSpace(out.Text), language, mode)
	if err != nil {
		return nil, fail(err)
	}
	for _, s := range out.Segments {
		result.Segments = append(result.Segments, segment(s.Start, s.End, strings.TrimSpace(s.Text)))
	}
	result.Elapsed = time.Since(start)
	return result, nil
}
