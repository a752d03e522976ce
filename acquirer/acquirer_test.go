package acquirer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscribe/command"
	"ytscribe/command/download"
	"ytscribe/ffprobe"
	"ytscribe/models"
)

// step describes what one scripted invocation does.
type step struct {
	lines      []string
	createFile bool
	stderr     string
	exitCode   int
}

type scriptedRunner struct {
	mu    sync.Mutex
	steps []step
	calls [][]string
}

func (s *scriptedRunner) Run(ctx context.Context, cmd command.Command, onLine command.LineFunc) (*command.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := cmd.BuildArgs()
	s.calls = append(s.calls, args)
	if len(s.steps) == 0 {
		return nil, errors.New("unexpected invocation")
	}
	st := s.steps[0]
	s.steps = s.steps[1:]

	for _, line := range st.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	if st.createFile && cmd.GetOutputPath() != "" {
		if err := os.WriteFile(cmd.GetOutputPath(), []byte("ID3audio"), 0o644); err != nil {
			return nil, err
		}
	}
	res := &command.Result{Stderr: st.stderr, ExitCode: st.exitCode}
	if st.exitCode != 0 {
		return res, &command.ExitError{Command: cmd.Binary(), ExitCode: st.exitCode, Stderr: st.stderr}
	}
	return res, nil
}

func testOptions() Options {
	return Options{Download: download.Options{
		Binary:             "yt-dlp",
		AudioFormat:        "mp3",
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		FallbackClient:     "android",
		GeoBypass:          true,
		NoCheckCertificate: true,
	}}
}

func formatOf(args []string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--format" {
			return args[i+1]
		}
	}
	return ""
}

func TestAcquire_PrimarySucceeds(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &scriptedRunner{steps: []step{{
		lines:      []string{"[download]  50.0% of 1.00MiB at 1.00MiB/s ETA 00:01", "[ExtractAudio] Destination: " + dest},
		createFile: true,
	}}}

	var updates []models.ProgressState
	fallbackCalled := false
	asset, err := New(runner, testOptions(), nil, nil).Acquire(context.Background(), "abc123", dest, Hooks{
		OnProgress: func(p *models.DownloadProgress) { updates = append(updates, p.State) },
		OnFallback: func(error) { fallbackCalled = true },
	})
	require.NoError(t, err)

	assert.Equal(t, dest, asset.Path)
	assert.Equal(t, int64(len("ID3audio")), asset.Size)
	assert.Len(t, runner.calls, 1)
	assert.Equal(t, "bestaudio", formatOf(runner.calls[0]))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", runner.calls[0][len(runner.calls[0])-1])
	assert.False(t, fallbackCalled)
	assert.Equal(t, []models.ProgressState{
		models.ProgressStateDownloading,
		models.ProgressStateConverting,
		models.ProgressStateCompleted,
	}, updates)
}

func TestAcquire_FallbackAfterPrimaryFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &scriptedRunner{steps: []step{
		{stderr: "ERROR: Sign in to confirm you're not a bot", exitCode: 1},
		{createFile: true},
	}}

	var fallbackErr error
	asset, err := New(runner, testOptions(), nil, nil).Acquire(context.Background(), "abc123", dest, Hooks{
		OnFallback: func(err error) { fallbackErr = err },
	})
	require.NoError(t, err)
	require.NotNil(t, asset)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "worstaudio", formatOf(runner.calls[1]))
	assert.Contains(t, strings.Join(runner.calls[1], " "), "youtube:player_client=android")
	assert.NotContains(t, runner.calls[1], "--user-agent")
	require.Error(t, fallbackErr)
	assert.Contains(t, fallbackErr.Error(), "not a bot")
}

func TestAcquire_BothFail(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &scriptedRunner{steps: []step{
		{stderr: "ERROR: first", exitCode: 1},
		{stderr: "ERROR: HTTP Error 403: Forbidden", exitCode: 1},
	}}

	asset, err := New(runner, testOptions(), nil, nil).Acquire(context.Background(), "abc123", dest, Hooks{})
	require.Error(t, err)
	assert.Nil(t, asset)

	var acqErr *Error
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, 2, acqErr.Attempts)
	assert.Contains(t, acqErr.Stderr, "403")
	assert.Contains(t, err.Error(), "403")
	assert.Len(t, runner.calls, 2, "no retry beyond the fallback")
}

func TestAcquire_SuccessButFileMissing(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &scriptedRunner{steps: []step{{createFile: false, stderr: "WARNING: postprocessing skipped"}}}

	_, err := New(runner, testOptions(), nil, nil).Acquire(context.Background(), "abc123", dest, Hooks{})
	require.Error(t, err)

	var acqErr *Error
	require.True(t, errors.As(err, &acqErr))
	assert.ErrorIs(t, err, ErrOutputMissing)
	assert.Equal(t, 1, acqErr.Attempts)
	assert.Contains(t, acqErr.Stderr, "postprocessing")
}

func TestAcquire_CancelledSkipsFallback(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &scriptedRunner{steps: []step{{exitCode: -1, stderr: "signal: killed"}, {createFile: true}}}
	_, err := New(runner, testOptions(), nil, nil).Acquire(ctx, "abc123", dest, Hooks{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, runner.calls, 1)
}

// probeRunner answers ffprobe calls and delegates yt-dlp calls.
type probeRunner struct {
	*scriptedRunner
	probeOutput string
}

func (p *probeRunner) Run(ctx context.Context, cmd command.Command, onLine command.LineFunc) (*command.Result, error) {
	if cmd.GetTaskType() == command.TaskTypeProbe {
		return &command.Result{Stdout: p.probeOutput}, nil
	}
	return p.scriptedRunner.Run(ctx, cmd, onLine)
}

func TestAcquire_InspectsWithProber(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &probeRunner{
		scriptedRunner: &scriptedRunner{steps: []step{{createFile: true}}},
		probeOutput:    `{"streams":[{"codec_type":"audio"}],"format":{"duration":"61.5","size":"999"}}`,
	}

	asset, err := New(runner, testOptions(), ffprobe.NewProber(runner, ""), nil).
		Acquire(context.Background(), "abc123", dest, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, 61.5, asset.Duration)
	assert.Equal(t, int64(999), asset.Size)
}

func TestAcquire_ProbeFailureIsNotFatal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "abc123.mp3")
	runner := &probeRunner{
		scriptedRunner: &scriptedRunner{steps: []step{{createFile: true}}},
		probeOutput:    "garbage",
	}

	asset, err := New(runner, testOptions(), ffprobe.NewProber(runner, ""), nil).
		Acquire(context.Background(), "abc123", dest, Hooks{})
	require.NoError(t, err)
	assert.Zero(t, asset.Duration)
}

func TestError_Message(t *testing.T) {
	err := &Error{VideoID: "abc", Attempts: 2, Stderr: "boom", Err: errors.New("fallback attempt: exit 1")}
	assert.Equal(t, "could not download audio for abc after 2 attempt(s): fallback attempt: exit 1: boom", err.Error())

	dup := &Error{VideoID: "abc", Attempts: 1, Stderr: "boom", Err: errors.New("exit: boom")}
	assert.Equal(t, "could not download audio for abc after 1 attempt(s): exit: boom", dup.Error())
}
