// Package sink carries run artifacts and status messages to presentation
// layers (console, web, history) as soon as they are produced.
package sink

import (
	"sync"
	"time"

	"ytscribe/models"
)

// Kind identifies what an Event carries.
type Kind string

const (
	KindOriginal      Kind = "original"      // caption transcript
	KindTranslation   Kind = "translation"   // quick translation of the captions
	KindTranscription Kind = "transcription" // speech recognition result
	KindStatus        Kind = "status"
	KindProgress      Kind = "progress"
	KindState         Kind = "state" // state transitions, including the terminal one
)

// Level of a status event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one message to a sink. Only the fields relevant to Kind are set.
type Event struct {
	Kind     Kind      `json:"kind"`
	Time     time.Time `json:"time"`
	Level    Level     `json:"level,omitempty"`
	Message  string    `json:"message,omitempty"`
	Language string    `json:"language,omitempty"`
	Text     string    `json:"text,omitempty"`

	Transcript *models.TranscriptDocument  `json:"transcript,omitempty"`
	Result     *models.TranscriptionResult `json:"result,omitempty"`
	Progress   *models.DownloadProgress    `json:"progress,omitempty"`

	// State is set on KindState events; Terminal marks Done or Aborted.
	State     string `json:"state,omitempty"`
	Terminal  bool   `json:"terminal,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Sink receives events. Emit must not block for long: the run waits on it.
type Sink interface {
	Emit(Event)
}

// Func adapts a function to Sink.
type Func func(Event)

// Emit implements Sink.
func (f Func) Emit(e Event) { f(e) }

// Multi fans events out to several sinks in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Discard drops every event.
var Discard Sink = Func(func(Event) {})

func now() time.Time { return time.Now() }

// Original carries the caption transcript and its language.
func Original(doc *models.TranscriptDocument) Event {
	return Event{Kind: KindOriginal, Time: now(), Language: doc.Language, Text: doc.Text(), Transcript: doc}
}

// Translation carries the quick translation.
func Translation(text, language string) Event {
	return Event{Kind: KindTranslation, Time: now(), Language: language, Text: text}
}

// Transcription carries the speech recognition result.
func Transcription(r *models.TranscriptionResult) Event {
	return Event{Kind: KindTranscription, Time: now(), Language: r.Language, Text: r.Text, Result: r}
}

// Status builds a status event.
func Status(level Level, msg string) Event {
	return Event{Kind: KindStatus, Time: now(), Level: level, Message: msg}
}

// Info builds an info status event.
func Info(msg string) Event { return Status(LevelInfo, msg) }

// Warning builds a warning status event.
func Warning(msg string) Event { return Status(LevelWarning, msg) }

// Error builds an error status event.
func Error(msg string) Event { return Status(LevelError, msg) }

// Progress carries a snapshot of a download's progress.
func Progress(p *models.DownloadProgress) Event {
	snapshot := *p
	return Event{Kind: KindProgress, Time: now(), Progress: &snapshot}
}

// State reports a state transition.
func State(state string, terminal bool, errorKind, msg string) Event {
	return Event{Kind: KindState, Time: now(), State: state, Terminal: terminal, ErrorKind: errorKind, Message: msg}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of one kind.
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Statuses returns the messages of recorded status events at level.
func (r *Recorder) Statuses(level Level) []string {
	var out []string
	for _, e := range r.OfKind(KindStatus) {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
