package asr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"ytscribe/internal/logging"
)

// Loader prepares a Recognizer. It runs at most once per ModelHolder.
type Loader func(ctx context.Context) (Recognizer, error)

// ModelHolder shares one lazily loaded model across requests. A load
// failure is cached: later callers fail fast with the same error.
type ModelHolder struct {
	load   Loader
	once   sync.Once
	done   atomic.Bool
	rec    Recognizer
	err    error
	logger *zap.SugaredLogger
}

// NewModelHolder creates a holder around load.
func NewModelHolder(load Loader, logger *zap.SugaredLogger) *ModelHolder {
	return &ModelHolder{load: load, logger: logging.OrNop(logger)}
}

// Loaded reports whether a load attempt has finished, successfully or not.
func (h *ModelHolder) Loaded() bool {
	return h.done.Load()
}

// Get returns the shared Recognizer, loading it on first use. Errors match
// ErrModelUnavailable.
func (h *ModelHolder) Get(ctx context.Context) (Recognizer, error) {
	h.once.Do(func() {
		defer h.done.Store(true)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("%w: panic while loading: %v", ErrModelUnavailable, r)
			}
		}()

		rec, err := h.load(ctx)
		switch {
		case err != nil:
			h.err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		case rec == nil:
			h.err = fmt.Errorf("%w: loader returned no model", ErrModelUnavailable)
		default:
			h.rec = rec
		}

		if h.err != nil {
			h.logger.Errorw("model load failed", "error", h.err)
		} else {
			h.logger.Infow("model loaded")
		}
	})
	return h.rec, h.err
}
