// Package whisper builds invocations of the openai-whisper command line
// tool.
package whisper

import (
	"fmt"
	"path/filepath"
	"strings"

	"ytscribe/command"
	"ytscribe/models"
)

// WhisperBuilder implements command.Command for the whisper CLI.
type WhisperBuilder struct {
	binary    string
	audioPath string
	outputDir string
	model     string
	mode      models.RecognitionMode
	language  string
	fp16      bool
}

// NewWhisperBuilder creates a builder transcribing audioPath and writing
// the JSON result into outputDir.
func NewWhisperBuilder(audioPath, outputDir string) *WhisperBuilder {
	return &WhisperBuilder{
		binary:    "whisper",
		audioPath: audioPath,
		outputDir: outputDir,
		model:     "base",
		mode:      models.ModeTranscribe,
	}
}

// SetBinary sets the whisper executable.
func (w *WhisperBuilder) SetBinary(binary string) *WhisperBuilder {
	w.binary = binary
	return w
}

// SetModel sets the model name (e.g., "tiny", "base", "small").
func (w *WhisperBuilder) SetModel(model string) *WhisperBuilder {
	w.model = model
	return w
}

// SetMode selects transcribe or translate.
func (w *WhisperBuilder) SetMode(mode models.RecognitionMode) *WhisperBuilder {
	w.mode = mode
	return w
}

// SetLanguage pins the spoken language. Empty lets whisper detect it.
func (w *WhisperBuilder) SetLanguage(language string) *WhisperBuilder {
	w.language = language
	return w
}

// SetFP16 toggles half precision, which only helps on GPUs.
func (w *WhisperBuilder) SetFP16(on bool) *WhisperBuilder {
	w.fp16 = on
	return w
}

// Binary implements command.Command.
func (w *WhisperBuilder) Binary() string {
	return w.binary
}

// Validate implements command.Command.
func (w *WhisperBuilder) Validate() error {
	var errors []string
	if strings.TrimSpace(w.binary) == "" {
		errors = append(errors, "binary is required")
	}
	if strings.TrimSpace(w.audioPath) == "" {
		errors = append(errors, "audio path is required")
	}
	if strings.TrimSpace(w.outputDir) == "" {
		errors = append(errors, "output dir is required")
	}
	if w.model == "" {
		errors = append(errors, "model is required")
	}
	if !w.mode.IsValid() {
		errors = append(errors, fmt.Sprintf("unknown mode %q", w.mode))
	}
	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// BuildArgs constructs the whisper arguments.
func (w *WhisperBuilder) BuildArgs() []string {
	args := []string{
		w.audioPath,
		"--model", w.model,
		"--task", string(w.mode),
		"--output_format", "json",
		"--output_dir", w.outputDir,
		"--verbose", "False",
	}
	if w.language != "" {
		args = append(args, "--language", w.language)
	}
	if w.fp16 {
		args = append(args, "--fp16", "True")
	} else {
		args = append(args, "--fp16", "False")
	}
	return args
}

// DryRun returns the command line without executing it.
func (w *WhisperBuilder) DryRun() (string, error) {
	if err := w.Validate(); err != nil {
		return "", fmt.Errorf("cannot build command: %w", err)
	}
	return command.Render(w.binary, w.BuildArgs()), nil
}

// GetTaskType implements command.Command.
func (w *WhisperBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeTranscribe
}

// GetOutputPath returns the JSON file whisper writes: the audio file's
// base name with a .json extension inside the output dir.
func (w *WhisperBuilder) GetOutputPath() string {
	base := filepath.Base(w.audioPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(w.outputDir, base+".json")
}
