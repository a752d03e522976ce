package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"ytscribe/internal/timeutil"
	"ytscribe/models"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Console renders events for a terminal.
type Console struct {
	mu         sync.Mutex
	w          io.Writer
	inProgress bool // a \r progress line is open
	Segments   bool // print timestamped ASR segments instead of plain text
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit implements Sink.
func (c *Console) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Kind != KindProgress && c.inProgress {
		fmt.Fprintln(c.w)
		c.inProgress = false
	}

	switch e.Kind {
	case KindOriginal:
		c.section("📜 Original Transcript")
		fmt.Fprintf(c.w, "  Language detected: %s\n\n", e.Language)
		fmt.Fprintln(c.w, e.Text)
		fmt.Fprintln(c.w)

	case KindTranslation:
		c.section("🌐 Quick Translation")
		fmt.Fprintf(c.w, "  Target language: %s\n\n", e.Language)
		fmt.Fprintln(c.w, e.Text)
		fmt.Fprintln(c.w)

	case KindTranscription:
		c.section("🎙️  Whisper Transcription")
		if e.Result != nil {
			fmt.Fprintf(c.w, "  Mode:     %s\n", e.Result.Mode)
			fmt.Fprintf(c.w, "  Language: %s\n", e.Result.Language)
			if e.Result.Elapsed > 0 {
				fmt.Fprintf(c.w, "  Took:     %s\n", timeutil.FormatDuration(e.Result.Elapsed))
			}
			fmt.Fprintln(c.w)
		}
		if c.Segments && e.Result != nil && len(e.Result.Segments) > 0 {
			for _, s := range e.Result.Segments {
				fmt.Fprintf(c.w, "[%s] %s\n", timeutil.FormatTimestamp(s.Start), s.Text)
			}
		} else {
			fmt.Fprintln(c.w, e.Text)
		}
		fmt.Fprintln(c.w)

	case KindStatus:
		fmt.Fprintf(c.w, "%s %s\n", levelIcon(e.Level), e.Message)

	case KindProgress:
		c.progress(e.Progress)

	case KindState:
		if !e.Terminal {
			return
		}
		if e.ErrorKind == "" {
			fmt.Fprintln(c.w, "\n✅ Done")
		} else {
			fmt.Fprintf(c.w, "\n❌ Aborted (%s)\n", e.ErrorKind)
		}
	}
}

func (c *Console) section(title string) {
	fmt.Fprintln(c.w, title)
	fmt.Fprintln(c.w, rule)
}

func (c *Console) progress(p *models.DownloadProgress) {
	if p == nil {
		return
	}
	switch p.State {
	case models.ProgressStateCompleted, models.ProgressStateFailed:
		if c.inProgress {
			fmt.Fprintln(c.w)
			c.inProgress = false
		}
		return
	case models.ProgressStateConverting:
		fmt.Fprintf(c.w, "\r  Converting audio...%s", strings.Repeat(" ", 40))
	default:
		fmt.Fprintf(c.w, "\r  Downloading (attempt %d): %s", p.Attempt, p.FormatSummary())
	}
	c.inProgress = true
}

func levelIcon(l Level) string {
	switch l {
	case LevelWarning:
		return "⚠️ "
	case LevelError:
		return "❌"
	default:
		return "ℹ️ "
	}
}
