package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ytscribe/internal/logging"
	"ytscribe/sink"
)

// Recorder is a sink that saves the run to a Store when the terminal state
// event arrives.
type Recorder struct {
	store  *Store
	logger *zap.SugaredLogger

	mu  sync.Mutex
	run Run
}

// NewRecorder starts recording run. ID, URL and the request fields should
// already be set.
func NewRecorder(store *Store, run Run, logger *zap.SugaredLogger) *Recorder {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return &Recorder{store: store, run: run, logger: logging.OrNop(logger)}
}

// Emit implements sink.Sink.
func (r *Recorder) Emit(e sink.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case sink.KindOriginal:
		r.run.CaptionLanguage = e.Language
		if e.Transcript != nil {
			r.run.VideoID = string(e.Transcript.VideoID)
		}
	case sink.KindTranscription:
		r.run.DetectedLanguage = e.Language
	case sink.KindStatus:
		if e.Level == sink.LevelWarning && e.ErrorKind != "" {
			r.run.Warnings = append(r.run.Warnings, e.ErrorKind)
		}
	case sink.KindState:
		r.run.State = e.State
		if !e.Terminal {
			return
		}
		r.run.ErrorKind = e.ErrorKind
		r.run.Message = e.Message
		r.run.FinishedAt = e.Time
		r.save()
	}
}

// Run returns a copy of the run as recorded so far.
func (r *Recorder) Run() Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run
}

func (r *Recorder) save() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, r.run); err != nil {
		r.logger.Warnw("could not record run history", "run_id", r.run.ID, "error", err)
	}
}
