package download

import (
	"strings"
	"testing"

	"ytscribe/command"
)

const (
	testURL = "https://www.youtube.com/watch?v=abc123"
	testOut = "/tmp/run/abc123.mp3"
	testUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var testOpts = Options{
	Binary:             "yt-dlp",
	AudioFormat:        "mp3",
	UserAgent:          testUA,
	FallbackClient:     "android",
	GeoBypass:          true,
	NoCheckCertificate: true,
}

// Compile-time check
var _ command.Command = (*DownloadBuilder)(nil)

func TestNewDownloadBuilder(t *testing.T) {
	builder := NewDownloadBuilder(testURL, testOut)

	if builder.Binary() != "yt-dlp" {
		t.Errorf("Expected default binary 'yt-dlp', got %s", builder.Binary())
	}
	if builder.format != "bestaudio" {
		t.Errorf("Expected default format 'bestaudio', got %s", builder.format)
	}
	if builder.audioFormat != "mp3" {
		t.Errorf("Expected default audio format 'mp3', got %s", builder.audioFormat)
	}
	if builder.GetOutputPath() != testOut {
		t.Errorf("Expected output %s, got %s", testOut, builder.GetOutputPath())
	}
	if builder.GetTaskType() != command.TaskTypeDownload {
		t.Errorf("Expected task type download, got %s", builder.GetTaskType())
	}
}

func TestForStrategy_PrimaryArgs(t *testing.T) {
	args := ForStrategy(StrategyPrimary, testOpts, testURL, testOut).BuildArgs()

	want := []string{
		"--extract-audio",
		"--format", "bestaudio",
		"--audio-format", "mp3",
		"--output", testOut,
		"--no-warnings",
		"--no-playlist",
		"--user-agent", testUA,
		"--geo-bypass",
		"--no-check-certificate",
		testURL,
	}
	assertArgs(t, args, want)
}

func TestForStrategy_FallbackArgs(t *testing.T) {
	args := ForStrategy(StrategyFallback, testOpts, testURL, testOut).BuildArgs()

	want := []string{
		"--extract-audio",
		"--format", "worstaudio",
		"--audio-format", "mp3",
		"--output", testOut,
		"--no-warnings",
		"--no-playlist",
		"--geo-bypass",
		"--no-check-certificate",
		"--extractor-args", "youtube:player_client=android",
		testURL,
	}
	assertArgs(t, args, want)

	for _, arg := range args {
		if arg == "--user-agent" {
			t.Error("Fallback must not send a user agent")
		}
	}
}

func TestBuildArgs_OptionalFlagsOmitted(t *testing.T) {
	args := NewDownloadBuilder(testURL, testOut).SetAudioFormat("m4a").BuildArgs()

	joined := strings.Join(args, " ")
	for _, flag := range []string{"--user-agent", "--geo-bypass", "--no-check-certificate", "--extractor-args"} {
		if strings.Contains(joined, flag) {
			t.Errorf("Unexpected %s in %s", flag, joined)
		}
	}
	assertContains(t, args, "--audio-format", "m4a")
	if args[len(args)-1] != testURL {
		t.Errorf("Expected URL last, got %s", args[len(args)-1])
	}
}

func TestBuildArgs_PathWithSpacesStaysOneArgument(t *testing.T) {
	out := "/tmp/my run/a b.mp3"
	args := NewDownloadBuilder(testURL, out).BuildArgs()
	assertContains(t, args, "--output", out)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		builder *DownloadBuilder
		wantErr string
	}{
		{"valid", NewDownloadBuilder(testURL, testOut), ""},
		{"missing url", NewDownloadBuilder("", testOut), "video url is required"},
		{"missing output", NewDownloadBuilder(testURL, " "), "output path is required"},
		{"missing binary", NewDownloadBuilder(testURL, testOut).SetBinary(""), "binary is required"},
		{"missing format", NewDownloadBuilder(testURL, testOut).SetFormat(""), "format is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDryRun(t *testing.T) {
	cmd, err := ForStrategy(StrategyPrimary, testOpts, testURL, testOut).DryRun()
	if err != nil {
		t.Fatalf("DryRun failed: %v", err)
	}
	if !strings.HasPrefix(cmd, "yt-dlp --extract-audio") {
		t.Errorf("Unexpected command: %s", cmd)
	}
	if !strings.Contains(cmd, `"`+testUA+`"`) {
		t.Errorf("Expected quoted user agent in %s", cmd)
	}

	if _, err := NewDownloadBuilder("", "").DryRun(); err == nil {
		t.Error("Expected DryRun error for invalid builder")
	}
}

func TestStrategyString(t *testing.T) {
	if StrategyPrimary.String() != "primary" || StrategyFallback.String() != "fallback" {
		t.Error("Unexpected strategy names")
	}
}

func assertArgs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d args, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

// assertContains checks that flag is immediately followed by value
func assertContains(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return
		}
	}
	t.Errorf("Expected %s %s in args: %v", flag, value, args)
}
