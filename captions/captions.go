// Package captions retrieves YouTube caption tracks.
package captions

import (
	"context"
	"errors"
	"fmt"

	"ytscribe/models"
)

// ErrUnavailable is matched by every caption retrieval failure: no tracks,
// captions disabled, video unavailable or a transport error.
var ErrUnavailable = errors.New("captions unavailable")

// Fetcher retrieves the caption track of a video.
type Fetcher interface {
	Fetch(ctx context.Context, id models.VideoID) (*models.TranscriptDocument, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id models.VideoID) (*models.TranscriptDocument, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, id models.VideoID) (*models.TranscriptDocument, error) {
	return f(ctx, id)
}

// unavailable wraps cause so that errors.Is(err, ErrUnavailable) holds.
func unavailable(id models.VideoID, format string, args ...any) error {
	return fmt.Errorf("%w for %s: %s", ErrUnavailable, id, fmt.Sprintf(format, args...))
}
