package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"ytscribe/internal/logging"
	"ytscribe/models"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// playerResponseMarker precedes the player response JSON in the watch page.
	playerResponseMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 << 20
	maxTimedTextBytes = 4 << 20
)

// YouTubeOptions configures a YouTubeFetcher.
type YouTubeOptions struct {
	// BaseURL of the watch page host, default https://www.youtube.com.
	BaseURL string
	// Client defaults to an http.Client with Timeout.
	Client  *http.Client
	Timeout time.Duration
	// Retries on transient failures (network errors, 429, 5xx).
	Retries int
	// InitialInterval of the exponential backoff, default 500ms.
	InitialInterval time.Duration
	// Language, when set, is preferred over list order.
	Language string
}

// YouTubeFetcher reads the player response embedded in the watch page and
// downloads the chosen track as timedtext XML.
type YouTubeFetcher struct {
	opts   YouTubeOptions
	client *http.Client
	logger *zap.SugaredLogger
}

// NewYouTubeFetcher creates a fetcher.
func NewYouTubeFetcher(opts YouTubeOptions, logger *zap.SugaredLogger) *YouTubeFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &YouTubeFetcher{opts: opts, client: client, logger: logging.OrNop(logger)}
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// Fetch implements Fetcher.
func (f *YouTubeFetcher) Fetch(ctx context.Context, id models.VideoID) (*models.TranscriptDocument, error) {
	page, err := f.get(ctx, f.opts.BaseURL+"/watch?v="+url.QueryEscape(string(id)), maxWatchPageBytes)
	if err != nil {
		return nil, unavailable(id, "watch page: %v", err)
	}

	player, err := parsePlayerResponse(page)
	if err != nil {
		return nil, unavailable(id, "%v", err)
	}
	if player.Captions == nil {
		reason := "video has no captions"
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			reason = player.PlayabilityStatus.Reason
		}
		return nil, unavailable(id, "%s", reason)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickTrack(tracks, f.opts.Language)
	if !ok {
		return nil, unavailable(id, "no usable caption track among %d", len(tracks))
	}

	f.logger.Debugw("caption track selected", "video_id", id, "language", track.LanguageCode, "kind", track.Kind)

	body, err := f.get(ctx, track.BaseURL, maxTimedTextBytes)
	if err != nil {
		return nil, unavailable(id, "timedtext: %v", err)
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, unavailable(id, "%v", err)
	}
	if len(segments) == 0 {
		return nil, unavailable(id, "caption track %s is empty", track.LanguageCode)
	}

	kind := models.TranscriptManual
	if track.Kind == "asr" {
		kind = models.TranscriptGenerated
	}
	doc, err := models.NewTranscriptDocument(id, track.LanguageCode, kind, segments)
	if err != nil {
		return nil, unavailable(id, "%v", err)
	}
	return doc, nil
}

// get fetches rawURL, retrying transient failures with exponential backoff.
func (f *YouTubeFetcher) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, limit))
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.opts.InitialInterval
	retries := f.opts.Retries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	notify := func(err error, wait time.Duration) {
		f.logger.Debugw("caption request failed, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func parsePlayerResponse(page []byte) (*playerResponse, error) {
	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("player response not found in watch page")
	}

	// Decode stops after the first JSON value; the trailing script is ignored.
	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(page[idx+len(playerResponseMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &player, nil
}

// pickTrack returns the first usable track. Manual tracks come before
// generated ones; a preferred language, when given, wins over both.
func pickTrack(tracks []captionTrack, language string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		// tracks needing a proof-of-origin token only load in a browser
		if t.BaseURL != "" && !strings.Contains(t.BaseURL, "&exp=xpe") {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	if language != "" {
		for _, t := range usable {
			if t.LanguageCode == language {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if t.Kind != "asr" {
			return t, true
		}
	}
	return usable[0], true
}

func parseTimedText(body []byte) ([]models.TranscriptSegment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// timedtext text is HTML-escaped a second time inside the XML
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		start, dur, ok := parseTiming(line.Start, line.Dur)
		if !ok {
			continue
		}
		segments = append(segments, models.TranscriptSegment{Start: start, Duration: dur, Text: text})
	}
	return segments, nil
}

// parseTiming reads a line's start and dur attributes. A missing dur is 0;
// a missing or malformed start, a malformed dur or a negative value drops
// the line so that segment start times stay meaningful.
func parseTiming(rawStart, rawDur string) (start, dur float64, ok bool) {
	start, err := strconv.ParseFloat(strings.TrimSpace(rawStart), 64)
	if err != nil || start < 0 || math.IsNaN(start) || math.IsInf(start, 0) {
		return 0, 0, false
	}
	if rawDur = strings.TrimSpace(rawDur); rawDur != "" {
		dur, err = strconv.ParseFloat(rawDur, 64)
		if err != nil || dur < 0 || math.IsNaN(dur) || math.IsInf(dur, 0) {
			return 0, 0, false
		}
	}
	return start, dur, true
}
