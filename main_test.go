package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"ytscribe/asr"
	"ytscribe/config"
	"ytscribe/history"
	"ytscribe/orchestrator"
	"ytscribe/sink"
	"ytscribe/translation"
)

func TestExitFor(t *testing.T) {
	tests := []struct {
		name    string
		outcome orchestrator.Outcome
		code    int
	}{
		{"Done", orchestrator.Outcome{State: orchestrator.StateDone}, 0},
		{"Done with warnings", orchestrator.Outcome{State: orchestrator.StateDone, Warnings: []orchestrator.ErrorKind{orchestrator.KindTranslation}}, 0},
		{"Canceled", orchestrator.Outcome{State: orchestrator.StateAborted, Kind: orchestrator.KindCanceled}, 130},
		{"Invalid URL", orchestrator.Outcome{State: orchestrator.StateAborted, Kind: orchestrator.KindInvalidURL}, 1},
		{"Acquisition", orchestrator.Outcome{State: orchestrator.StateAborted, Kind: orchestrator.KindAcquisition}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitFor(&tt.outcome)
			if tt.code == 0 {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var exit *exitError
			if !errors.As(err, &exit) || exit.code != tt.code {
				t.Errorf("Expected exit code %d, got %v", tt.code, err)
			}
		})
	}
}

func TestNewTranslator(t *testing.T) {
	cfg := config.DefaultConfig()

	tr, err := newTranslator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.(*translation.GoogleTranslator); !ok {
		t.Errorf("Expected google translator by default, got %T", tr)
	}

	cfg.Translation.Provider = "stub"
	if tr, _ = newTranslator(cfg); tr == nil {
		t.Error("Expected stub translator")
	}

	cfg.Translation.Provider = "carrier-pigeon"
	if _, err := newTranslator(cfg); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNewModelLoader(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Whisper.Binary = "definitely-not-installed-whisper"

	load, err := newModelLoader(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := load(context.Background()); err == nil {
		t.Error("Expected missing binary to fail loading")
	}

	cfg.Whisper.Backend = "openai"
	load, err = newModelLoader(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := load(context.Background()); err == nil {
		t.Error("Expected missing API key to fail loading")
	}

	cfg.Whisper.Backend = "gpu"
	if _, err := newModelLoader(cfg, nil, nil); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestRunOnce_InvalidURLIsRecorded(t *testing.T) {
	store := history.Open(filepath.Join(t.TempDir(), "history.db"))
	defer store.Close()

	a := &app{
		cfg:     config.DefaultConfig(),
		logger:  zap.NewNop().Sugar(),
		history: store,
		orch: orchestrator.New(orchestrator.Dependencies{
			Models: asr.NewModelHolder(func(context.Context) (asr.Recognizer, error) {
				return nil, errors.New("not used")
			}, nil),
		}, orchestrator.Options{}),
	}

	var buf bytes.Buffer
	err := runOnce(context.Background(), &buf, a, orchestrator.Request{URL: "https://example.com/nope"}, sink.NewConsole(&buf))

	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Fatalf("Expected exit code 1, got %v", err)
	}
	if !strings.Contains(buf.String(), "Invalid YouTube URL") {
		t.Errorf("Expected invalid URL message, got:\n%s", buf.String())
	}

	runs, err := store.List(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ErrorKind != string(orchestrator.KindInvalidURL) {
		t.Errorf("Expected one InvalidURL run, got %+v", runs)
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	if !strings.Contains(buf.String(), "No runs recorded") {
		t.Errorf("Unexpected output: %s", buf.String())
	}

	buf.Reset()
	printHistory(&buf, []history.Run{{
		VideoID:    "dQw4w9WgXcQ",
		State:      "Done",
		Warnings:   []string{"TranslationError"},
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}})
	out := buf.String()
	for _, want := range []string{"dQw4w9WgXcQ", "Done", "(TranslationError)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestRootCommand(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"run needs a url", []string{"run"}, "", true},
		{"run dry run", []string{"run", "https://youtu.be/abc", "--dry-run", "--no-history"}, "DRY RUN MODE", false},
		{"config prints", []string{"config", "--target", "de"}, "Target:         de", false},
		{"config saves", []string{"config", "--save", filepath.Join(dir, "out.yaml")}, "Configuration written", false},
		{"invalid flag value", []string{"config", "--translator", "nope"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			root := newRootCommand(&buf)
			root.SetErr(&buf)
			root.SetArgs(append(tt.args, "--env-file", filepath.Join(dir, "missing.env"), "--config", ""))

			err := root.Execute()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Expected %q in output:\n%s", tt.want, buf.String())
			}
		})
	}
}
