// Package acquirer downloads a video's audio track with yt-dlp, trying a
// primary strategy and then exactly one fallback.
package acquirer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"ytscribe/command"
	"ytscribe/command/download"
	"ytscribe/ffprobe"
	"ytscribe/internal/logging"
	"ytscribe/models"
	"ytscribe/videoid"
	"ytscribe/ytdlp"
)

// ErrOutputMissing is wrapped by Error when yt-dlp exited successfully but
// the expected audio file does not exist.
var ErrOutputMissing = errors.New("audio file was not created")

// Error reports a failed acquisition. Stderr holds the diagnostic output of
// the last attempt.
type Error struct {
	VideoID  models.VideoID
	Attempts int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("could not download audio for %s after %d attempt(s)", e.VideoID, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" && (e.Err == nil || !strings.Contains(e.Err.Error(), s)) {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Hooks lets callers observe an acquisition in progress. Both are optional.
type Hooks struct {
	OnProgress models.ProgressCallback
	// OnFallback is called once when the primary attempt failed and the
	// fallback is about to start.
	OnFallback func(primary error)
}

// Options configures an Acquirer.
type Options struct {
	Download download.Options
	// Timeout bounds each attempt; 0 means no limit besides ctx.
	Timeout time.Duration
}

// Acquirer fetches audio for a video id into a destination path.
type Acquirer struct {
	runner command.Runner
	opts   Options
	prober *ffprobe.Prober
	logger *zap.SugaredLogger
}

// New creates an Acquirer. prober may be nil to skip inspecting the file.
func New(runner command.Runner, opts Options, prober *ffprobe.Prober, logger *zap.SugaredLogger) *Acquirer {
	return &Acquirer{
		runner: runner,
		opts:   opts,
		prober: prober,
		logger: logging.OrNop(logger),
	}
}

// Acquire downloads the audio of id to dest.
//
// The primary strategy runs first. If it fails for any reason other than
// cancellation, the fallback runs exactly once. When both fail, or the
// output file is missing afterwards, an *Error is returned. No further
// retries happen.
func (a *Acquirer) Acquire(ctx context.Context, id models.VideoID, dest string, hooks Hooks) (*models.AudioAsset, error) {
	url := videoid.WatchURL(id)

	attempts := 0
	var (
		result *command.Result
		err    error
	)
	for _, strategy := range []download.Strategy{download.StrategyPrimary, download.StrategyFallback} {
		if strategy == download.StrategyFallback {
			a.logger.Warnw("primary download failed, trying fallback", "video_id", id, "error", err)
			if hooks.OnFallback != nil {
				hooks.OnFallback(err)
			}
		}

		attempts++
		result, err = a.attempt(ctx, strategy, url, dest, attempts, hooks.OnProgress)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, &Error{VideoID: id, Attempts: attempts, Stderr: stderrOf(result), Err: ctx.Err()}
		}
	}

	if err != nil {
		return nil, &Error{VideoID: id, Attempts: attempts, Stderr: stderrOf(result), Err: err}
	}

	info, statErr := os.Stat(dest)
	if statErr != nil {
		return nil, &Error{VideoID: id, Attempts: attempts, Stderr: stderrOf(result), Err: ErrOutputMissing}
	}

	asset := &models.AudioAsset{VideoID: id, Path: dest, Size: info.Size()}
	if a.prober != nil {
		if err := a.prober.Inspect(ctx, asset); err != nil {
			a.logger.Warnw("could not inspect downloaded audio", "path", dest, "error", err)
		}
	}

	a.logger.Infow("audio downloaded",
		"video_id", id,
		"attempts", attempts,
		"bytes", asset.Size,
		"duration_s", asset.Duration,
	)
	return asset, nil
}

func (a *Acquirer) attempt(ctx context.Context, strategy download.Strategy, url, dest string, n int, onProgress models.ProgressCallback) (*command.Result, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	cmd := download.ForStrategy(strategy, a.opts.Download, url, dest)
	if line, err := cmd.DryRun(); err == nil {
		a.logger.Debugw("running downloader", "strategy", strategy, "command", line)
	}

	progress := models.NewDownloadProgress(n)
	parser := ytdlp.NewProgressParser()

	result, err := a.runner.Run(ctx, cmd, parser.Observe(progress, onProgress))
	if err != nil {
		progress.State = models.ProgressStateFailed
		if onProgress != nil {
			onProgress(progress)
		}
		if result != nil && result.Stderr == "" && len(parser.Errors()) > 0 {
			// yt-dlp occasionally prints errors on stdout
			result.Stderr = strings.Join(parser.Errors(), "\n")
		}
		return result, fmt.Errorf("%s attempt: %w", strategy, err)
	}

	progress.State = models.ProgressStateCompleted
	progress.SetPercent(100)
	if onProgress != nil {
		onProgress(progress)
	}
	return result, nil
}

func stderrOf(r *command.Result) string {
	if r == nil {
		return ""
	}
	return r.Stderr
}
