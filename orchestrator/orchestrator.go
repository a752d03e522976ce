// Package orchestrator drives one transcription run: resolve the video,
// show its captions, optionally translate them, then download the audio
// and run speech recognition on it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ytscribe/acquirer"
	"ytscribe/asr"
	"ytscribe/captions"
	"ytscribe/internal/logging"
	"ytscribe/models"
	"ytscribe/sink"
	"ytscribe/translation"
	"ytscribe/videoid"
)

// DefaultTargetLanguage is used when neither the request nor the options
// name one.
const DefaultTargetLanguage = "en"

// AudioAcquirer downloads the audio of a video to a path.
type AudioAcquirer interface {
	Acquire(ctx context.Context, id models.VideoID, dest string, hooks acquirer.Hooks) (*models.AudioAsset, error)
}

// ModelProvider hands out the shared speech recognition model.
type ModelProvider interface {
	Get(ctx context.Context) (asr.Recognizer, error)
	Loaded() bool
}

// Metrics receives stage and run measurements. Implementations must be
// safe for concurrent use.
type Metrics interface {
	RecordStage(ctx context.Context, stage string, d time.Duration, err error)
	RecordRun(ctx context.Context, state, kind string, d time.Duration)
}

// Dependencies are the collaborators of a run. Limiter and Metrics are
// optional.
type Dependencies struct {
	Captions   captions.Fetcher
	Translator translation.Translator
	Acquirer   AudioAcquirer
	Models     ModelProvider
	Limiter    *Limiter
	Metrics    Metrics
	Logger     *zap.SugaredLogger
}

// Options configures an Orchestrator.
type Options struct {
	// TempDir is the parent of the per-run scratch directory ("" = OS default).
	TempDir        string
	TargetLanguage string
	// AudioFormat is the extension of the downloaded file, default "mp3".
	AudioFormat string
}

// Request is one run's input.
type Request struct {
	URL            string
	Translate      bool
	TargetLanguage string
}

// Outcome is what a run ended with. Warnings lists the non-fatal kinds the
// run went through.
type Outcome struct {
	State    State
	Trace    []State
	Kind     ErrorKind
	Err      error
	Message  string
	Warnings []ErrorKind
	VideoID  models.VideoID
	Duration time.Duration
}

// Orchestrator runs requests. One Orchestrator serves concurrent runs;
// each run is sequential.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *zap.SugaredLogger
}

// New creates an Orchestrator.
func New(deps Dependencies, opts Options) *Orchestrator {
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = DefaultTargetLanguage
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "mp3"
	}
	return &Orchestrator{deps: deps, opts: opts, logger: logging.OrNop(deps.Logger)}
}

// run tracks one request's progress through the state machine.
type run struct {
	ctx     context.Context
	out     sink.Sink
	outcome *Outcome
	logger  *zap.SugaredLogger
}

// enter moves the run to s. An illegal step panics; Run turns the panic
// into a KindInternal abort.
func (r *run) enter(s State) {
	if from := r.outcome.State; from != "" && !CanTransition(from, s) {
		panic(fmt.Sprintf("illegal state transition %s -> %s", from, s))
	}
	r.outcome.Trace = append(r.outcome.Trace, s)
	r.outcome.State = s
	r.logger.Debugw("state", "state", s)
	r.out.Emit(sink.State(string(s), false, "", ""))
}

func (r *run) warn(kind ErrorKind, err error) {
	r.outcome.Warnings = append(r.outcome.Warnings, kind)
	r.logger.Warnw("run degraded", "kind", kind, "error", err)
	e := sink.Warning(UserMessage(kind, err))
	e.ErrorKind = string(kind)
	r.out.Emit(e)
}

// abort records err as the reason the run stops. A done context overrides
// the collaborator's error kind, and a kind that only degrades a run is
// reported as KindInternal.
func (r *run) abort(err error) error {
	kind := Classify(err)
	if r.ctx.Err() != nil {
		kind = KindCanceled
	}
	if !kind.Fatal() {
		r.logger.Errorw("non-fatal error kind aborted the run", "kind", kind, "error", err)
		kind = KindInternal
	}
	r.outcome.Kind = kind
	r.outcome.Err = err
	r.outcome.Message = UserMessage(kind, err)
	return err
}

// Run executes req and streams its artifacts to out. It never panics: a
// panicking collaborator aborts the run with KindInternal.
func (o *Orchestrator) Run(ctx context.Context, req Request, out sink.Sink) (outcome *Outcome) {
	if out == nil {
		out = sink.Discard
	}
	start := time.Now()
	r := &run{
		ctx:     ctx,
		out:     out,
		outcome: &Outcome{},
		logger:  o.logger.With("url", req.URL),
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorw("run panicked", "panic", p)
			err := fmt.Errorf("panic: %v", p)
			r.outcome.Kind = KindInternal
			r.outcome.Err = err
			r.outcome.Message = UserMessage(KindInternal, err)
		}
		o.finish(r, start)
		outcome = r.outcome
	}()

	r.enter(StateStart)
	_ = o.execute(r, req)
	return r.outcome
}

// finish moves the run to its terminal state and reports it.
func (o *Orchestrator) finish(r *run, start time.Time) {
	if !r.outcome.Kind.Fatal() && !CanTransition(r.outcome.State, StateDone) {
		err := fmt.Errorf("run stopped in state %s", r.outcome.State)
		r.logger.Errorw("run ended early without an error", "state", r.outcome.State)
		r.outcome.Kind = KindInternal
		r.outcome.Err = err
		r.outcome.Message = UserMessage(KindInternal, err)
	}

	final := StateDone
	if r.outcome.Kind.Fatal() {
		final = StateAborted
		e := sink.Error(r.outcome.Message)
		e.ErrorKind = string(r.outcome.Kind)
		r.out.Emit(e)
	}
	r.outcome.Trace = append(r.outcome.Trace, final)
	r.outcome.State = final
	r.outcome.Duration = time.Since(start)
	r.out.Emit(sink.State(string(final), true, string(r.outcome.Kind), r.outcome.Message))

	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordRun(r.ctx, string(final), string(r.outcome.Kind), r.outcome.Duration)
	}
	r.logger.Infow("run finished",
		"state", final,
		"kind", r.outcome.Kind,
		"warnings", r.outcome.Warnings,
		"duration", r.outcome.Duration,
	)
}

// execute walks the non-terminal states. A returned error has already been
// recorded with abort.
func (o *Orchestrator) execute(r *run, req Request) error {
	ctx := r.ctx

	id, err := videoid.Extract(req.URL)
	if err != nil {
		return r.abort(err)
	}
	r.outcome.VideoID = id
	r.logger = r.logger.With("video_id", id)
	r.enter(StateIDResolved)

	doc := o.fetchCaptions(r, id)
	if ctx.Err() != nil {
		return r.abort(ctx.Err())
	}

	target := req.TargetLanguage
	if target == "" {
		target = o.opts.TargetLanguage
	}
	if doc != nil && req.Translate && !translation.SameLanguage(doc.Language, target) {
		r.enter(StateTranslating)
		o.translate(r, doc, target)
		if ctx.Err() != nil {
			return r.abort(ctx.Err())
		}
	}

	recognizer, err := o.loadModel(r)
	if err != nil {
		return r.abort(err)
	}

	r.enter(StateAudioAcquiring)
	dir, err := os.MkdirTemp(o.opts.TempDir, "ytscribe-*")
	if err != nil {
		return r.abort(&StageError{Kind: KindAcquisition, Err: fmt.Errorf("create scratch directory: %w", err)})
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warnw("scratch directory cleanup failed", "dir", dir, "error", err)
			r.out.Emit(sink.Warning(fmt.Sprintf("Could not remove temporary files in %s: %v", dir, err)))
		}
	}()

	asset, err := o.acquire(r, id, filepath.Join(dir, string(id)+"."+o.opts.AudioFormat))
	if err != nil {
		return r.abort(err)
	}

	mode := models.ModeTranscribe
	if req.Translate {
		mode = models.ModeTranslate
	}
	r.enter(StateTranscribing)
	result, err := o.recognize(r, recognizer, asset, mode)
	if err != nil {
		return r.abort(err)
	}

	if doc == nil {
		r.out.Emit(sink.Info(fmt.Sprintf("Language detected: %s", result.Language)))
	}
	r.out.Emit(sink.Transcription(result))
	return nil
}

func (o *Orchestrator) fetchCaptions(r *run, id models.VideoID) *models.TranscriptDocument {
	start := time.Now()
	doc, err := o.deps.Captions.Fetch(r.ctx, id)
	o.stage(r.ctx, "captions", start, err)

	if err != nil {
		if r.ctx.Err() != nil {
			return nil
		}
		r.enter(StateCaptionsAbsent)
		r.warn(KindCaptionsUnavailable, err)
		return nil
	}

	r.enter(StateCaptionsFound)
	r.out.Emit(sink.Original(doc))
	return doc
}

func (o *Orchestrator) translate(r *run, doc *models.TranscriptDocument, target string) {
	r.out.Emit(sink.Info("Getting quick translation..."))

	start := time.Now()
	text, err := o.deps.Translator.Translate(r.ctx, doc.Text(), translation.AutoDetect, target)
	o.stage(r.ctx, "translation", start, err)

	if err != nil {
		if r.ctx.Err() != nil {
			return
		}
		var trErr *translation.Error
		if !errors.As(err, &trErr) {
			err = &translation.Error{ChunkCount: 1, Err: err}
		}
		r.warn(KindTranslation, err)
		return
	}
	r.out.Emit(sink.Translation(text, target))
}

func (o *Orchestrator) loadModel(r *run) (asr.Recognizer, error) {
	if !o.deps.Models.Loaded() {
		r.out.Emit(sink.Info("Loading Whisper model (this may take a minute the first time)..."))
		rec, err := o.deps.Models.Get(r.ctx)
		if err == nil {
			r.out.Emit(sink.Info("Whisper model loaded successfully!"))
		}
		return rec, err
	}
	return o.deps.Models.Get(r.ctx)
}

func (o *Orchestrator) acquire(r *run, id models.VideoID, dest string) (*models.AudioAsset, error) {
	release, err := o.deps.Limiter.Acquire(r.ctx, ResourceDownload)
	if err != nil {
		return nil, err
	}
	defer release()

	hooks := acquirer.Hooks{
		OnProgress: func(p *models.DownloadProgress) {
			r.out.Emit(sink.Progress(p))
		},
		OnFallback: func(error) {
			r.out.Emit(sink.Warning("First download attempt failed, trying alternative method..."))
		},
	}

	start := time.Now()
	asset, err := o.deps.Acquirer.Acquire(r.ctx, id, dest, hooks)
	o.stage(r.ctx, "download", start, err)
	return asset, err
}

func (o *Orchestrator) recognize(r *run, rec asr.Recognizer, asset *models.AudioAsset, mode models.RecognitionMode) (*models.TranscriptionResult, error) {
	release, err := o.deps.Limiter.Acquire(r.ctx, ResourceTranscribe)
	if err != nil {
		return nil, err
	}
	defer release()

	r.out.Emit(sink.Info("Processing with Whisper (this may take a few minutes)..."))

	start := time.Now()
	result, err := rec.Recognize(r.ctx, asset.Path, mode)
	o.stage(r.ctx, "transcription", start, err)
	if err != nil {
		var asrErr *asr.TranscriptionError
		if !errors.As(err, &asrErr) && r.ctx.Err() == nil {
			err = &asr.TranscriptionError{Backend: "whisper", Mode: mode, Err: err}
		}
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) stage(ctx context.Context, name string, start time.Time, err error) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordStage(ctx, name, time.Since(start), err)
	}
}
