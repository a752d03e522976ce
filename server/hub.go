package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"ytscribe/orchestrator"
	"ytscribe/sink"
)

// subscriberBuffer is how many events a websocket may lag behind before it
// is dropped.
const subscriberBuffer = 256

// Hub keeps the events of recent runs so that late websocket clients can
// replay them.
type Hub struct {
	mu      sync.RWMutex
	runs    map[string]*runState
	maxRuns int
}

// NewHub keeps at most maxRuns finished runs.
func NewHub(maxRuns int) *Hub {
	if maxRuns <= 0 {
		maxRuns = 100
	}
	return &Hub{runs: make(map[string]*runState), maxRuns: maxRuns}
}

type runState struct {
	id      string
	req     orchestrator.Request
	created time.Time
	cancel  context.CancelFunc

	mu      sync.Mutex
	events  []sink.Event
	subs    map[chan sink.Event]struct{}
	done    bool
	outcome *orchestrator.Outcome
}

func (h *Hub) create(id string, req orchestrator.Request, cancel context.CancelFunc) *runState {
	rs := &runState{
		id:      id,
		req:     req,
		created: time.Now(),
		cancel:  cancel,
		subs:    make(map[chan sink.Event]struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[id] = rs
	h.prune()
	return rs
}

// prune drops the oldest finished runs beyond maxRuns. Caller holds h.mu.
func (h *Hub) prune() {
	if len(h.runs) <= h.maxRuns {
		return
	}
	var finished []*runState
	for _, rs := range h.runs {
		if rs.finished() {
			finished = append(finished, rs)
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].created.Before(finished[j].created) })
	for _, rs := range finished {
		if len(h.runs) <= h.maxRuns {
			return
		}
		delete(h.runs, rs.id)
	}
}

func (h *Hub) get(id string) (*runState, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rs, ok := h.runs[id]
	return rs, ok
}

// cancelAll cancels every run still in progress.
func (h *Hub) cancelAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, rs := range h.runs {
		if !rs.finished() && rs.cancel != nil {
			rs.cancel()
		}
	}
}

// Emit implements sink.Sink. A subscriber whose buffer is full is dropped
// rather than blocking the run.
func (rs *runState) Emit(e sink.Event) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.events = append(rs.events, e)
	for ch := range rs.subs {
		select {
		case ch <- e:
		default:
			close(ch)
			delete(rs.subs, ch)
		}
	}
	if e.Kind == sink.KindState && e.Terminal {
		rs.done = true
		for ch := range rs.subs {
			close(ch)
			delete(rs.subs, ch)
		}
	}
}

func (rs *runState) finish(out *orchestrator.Outcome) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.outcome = out
	rs.done = true
}

func (rs *runState) finished() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.done
}

// subscribe returns the events so far and a channel of the following ones.
// The channel is closed after the terminal event.
func (rs *runState) subscribe() ([]sink.Event, <-chan sink.Event, func()) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	replay := append([]sink.Event(nil), rs.events...)
	ch := make(chan sink.Event, subscriberBuffer)
	if rs.done {
		close(ch)
		return replay, ch, func() {}
	}
	rs.subs[ch] = struct{}{}

	return replay, ch, func() {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		if _, ok := rs.subs[ch]; ok {
			close(ch)
			delete(rs.subs, ch)
		}
	}
}

// runView is the JSON form of a run.
type runView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Translate bool      `json:"translate"`
	State     string    `json:"state"`
	Done      bool      `json:"done"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	Events    int       `json:"events"`
	Created   time.Time `json:"created"`
}

func (rs *runState) view() runView {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	v := runView{
		ID:        rs.id,
		URL:       rs.req.URL,
		Translate: rs.req.Translate,
		State:     string(orchestrator.StateStart),
		Done:      rs.done,
		Events:    len(rs.events),
		Created:   rs.created,
	}
	for _, e := range rs.events {
		if e.Kind == sink.KindState {
			v.State = e.State
		}
	}
	if rs.outcome != nil {
		v.State = string(rs.outcome.State)
		v.ErrorKind = string(rs.outcome.Kind)
		v.Message = rs.outcome.Message
		for _, w := range rs.outcome.Warnings {
			v.Warnings = append(v.Warnings, string(w))
		}
	}
	return v
}
