package whisper

import (
	"path/filepath"
	"strings"
	"testing"

	"ytscribe/command"
	"ytscribe/models"
)

var _ command.Command = (*WhisperBuilder)(nil)

func TestNewWhisperBuilder_Defaults(t *testing.T) {
	b := NewWhisperBuilder("/tmp/run/abc.mp3", "/tmp/run/whisper")

	if b.Binary() != "whisper" {
		t.Errorf("Expected binary 'whisper', got %s", b.Binary())
	}
	if b.model != "base" {
		t.Errorf("Expected model 'base', got %s", b.model)
	}
	if b.mode != models.ModeTranscribe {
		t.Errorf("Expected transcribe mode, got %s", b.mode)
	}
	if b.GetTaskType() != command.TaskTypeTranscribe {
		t.Errorf("Unexpected task type %s", b.GetTaskType())
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		builder *WhisperBuilder
		want    []string
		absent  []string
	}{
		{
			name:    "transcribe",
			builder: NewWhisperBuilder("/a/x.mp3", "/a/out"),
			want:    []string{"--model", "base", "--task", "transcribe", "--output_format", "json", "--output_dir", "/a/out", "--fp16", "False"},
			absent:  []string{"--language"},
		},
		{
			name:    "translate with small model",
			builder: NewWhisperBuilder("/a/x.mp3", "/a/out").SetMode(models.ModeTranslate).SetModel("small"),
			want:    []string{"--model", "small", "--task", "translate"},
		},
		{
			name:    "pinned language on gpu",
			builder: NewWhisperBuilder("/a/x.mp3", "/a/out").SetLanguage("fr").SetFP16(true),
			want:    []string{"--language", "fr", "--fp16", "True"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.builder.BuildArgs()
			if args[0] != "/a/x.mp3" {
				t.Errorf("Expected audio path first, got %s", args[0])
			}
			for i := 0; i+1 < len(tt.want); i += 2 {
				assertContains(t, args, tt.want[i], tt.want[i+1])
			}
			joined := strings.Join(args, " ")
			for _, flag := range tt.absent {
				if strings.Contains(joined, flag) {
					t.Errorf("Unexpected %s in %s", flag, joined)
				}
			}
		})
	}
}

func TestGetOutputPath(t *testing.T) {
	b := NewWhisperBuilder("/tmp/run/abc123.mp3", "/tmp/run/out")
	want := filepath.Join("/tmp/run/out", "abc123.json")
	if got := b.GetOutputPath(); got != want {
		t.Errorf("GetOutputPath = %s; want %s", got, want)
	}
}

func TestValidate(t *testing.T) {
	if err := NewWhisperBuilder("/a.mp3", "/out").Validate(); err != nil {
		t.Errorf("Expected valid builder, got %v", err)
	}

	err := NewWhisperBuilder("", "").SetModel("").SetMode("dance").Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, want := range []string{"audio path is required", "output dir is required", "model is required", "unknown mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected %q in %v", want, err)
		}
	}

	if _, err := NewWhisperBuilder("", "/out").DryRun(); err == nil {
		t.Error("Expected DryRun error")
	}
}

func assertContains(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return
		}
	}
	t.Errorf("Expected %s %s in args: %v", flag, value, args)
}
