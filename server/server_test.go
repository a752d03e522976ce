package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscribe/history"
	"ytscribe/models"
	"ytscribe/orchestrator"
	"ytscribe/sink"
)

// gatedRunner emits an info event, waits for the gate, then finishes.
type gatedRunner struct {
	gate chan struct{}
	reqs chan orchestrator.Request
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{gate: make(chan struct{}), reqs: make(chan orchestrator.Request, 4)}
}

func (g *gatedRunner) Run(ctx context.Context, req orchestrator.Request, out sink.Sink) *orchestrator.Outcome {
	g.reqs <- req
	out.Emit(sink.State("Start", false, "", ""))
	out.Emit(sink.Info("Loading Whisper model..."))

	select {
	case <-g.gate:
	case <-ctx.Done():
		out.Emit(sink.State("Aborted", true, "Canceled", "Run cancelled."))
		return &orchestrator.Outcome{State: orchestrator.StateAborted, Kind: orchestrator.KindCanceled}
	}

	out.Emit(sink.Transcription(&models.TranscriptionResult{Text: "hello", Language: "en", Mode: models.ModeTranscribe}))
	out.Emit(sink.State("Done", true, "", ""))
	return &orchestrator.Outcome{State: orchestrator.StateDone}
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func createRun(t *testing.T, s *Server, url string) string {
	t.Helper()
	resp, body := doJSON(t, s, http.MethodPost, "/api/runs", map[string]any{"url": url, "translate": true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthAndIndex(t *testing.T) {
	s := New(newGatedRunner(), Options{}, nil)

	resp, body := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "resources")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Translate to English if not in English")
}

func TestHealthReportsResources(t *testing.T) {
	limiter := orchestrator.NewLimiter([]orchestrator.ResourceConstraint{
		{Type: orchestrator.ResourceDownload, MaxSlots: 3},
	})
	release, err := limiter.Acquire(context.Background(), orchestrator.ResourceDownload)
	require.NoError(t, err)
	defer release()

	s := New(newGatedRunner(), Options{Resources: limiter.Stats}, nil)

	_, body := doJSON(t, s, http.MethodGet, "/healthz", nil)
	resources, ok := body["resources"].(map[string]any)
	require.True(t, ok, "resources missing: %v", body)
	assert.Equal(t, float64(1), resources["download_active"])
	assert.Equal(t, float64(3), resources["download_max"])
}

func TestCreateRun_Validation(t *testing.T) {
	s := New(newGatedRunner(), Options{}, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/runs", map[string]any{"url": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "url")
}

func TestRunLifecycle(t *testing.T) {
	runner := newGatedRunner()
	s := New(runner, Options{TargetLanguage: "de"}, nil)

	id := createRun(t, s, "https://youtu.be/abc")
	req := <-runner.reqs
	assert.Equal(t, "de", req.TargetLanguage, "server default target applies")
	assert.True(t, req.Translate)

	_, view := doJSON(t, s, http.MethodGet, "/api/runs/"+id, nil)
	assert.Equal(t, false, view["done"])

	close(runner.gate)
	require.Eventually(t, func() bool {
		_, view := doJSON(t, s, http.MethodGet, "/api/runs/"+id, nil)
		return view["done"] == true && view["state"] == "Done"
	}, 2*time.Second, 10*time.Millisecond)

	resp, _ := doJSON(t, s, http.MethodGet, "/api/runs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRun(t *testing.T) {
	runner := newGatedRunner()
	s := New(runner, Options{}, nil)

	id := createRun(t, s, "https://youtu.be/abc")
	<-runner.reqs

	resp, _ := doJSON(t, s, http.MethodDelete, "/api/runs/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, view := doJSON(t, s, http.MethodGet, "/api/runs/"+id, nil)
		return view["error_kind"] == "Canceled"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHistoryEndpoint(t *testing.T) {
	store := history.Open(filepath.Join(t.TempDir(), "h.db"))
	defer store.Close()

	runner := newGatedRunner()
	close(runner.gate)
	s := New(runner, Options{History: store}, nil)

	createRun(t, s, "https://youtu.be/abc")
	<-runner.reqs

	require.Eventually(t, func() bool {
		runs, err := store.List(context.Background(), 10)
		return err == nil && len(runs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil))
	require.NoError(t, err)
	var runs []history.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "abc", runs[0].VideoID)
	assert.Equal(t, "Done", runs[0].State)
}

func TestHistoryDisabled(t *testing.T) {
	resp, _ := doJSON(t, New(newGatedRunner(), Options{}, nil), http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketReplayAndStream(t *testing.T) {
	runner := newGatedRunner()
	s := New(runner, Options{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.ServeListener(ctx, ln) }()
	defer func() {
		cancel()
		assert.NoError(t, <-served)
	}()

	id := createRun(t, s, "https://youtu.be/abc")
	<-runner.reqs

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/runs/"+id, nil)
	require.NoError(t, err)
	defer conn.Close()

	var kinds []string
	readOne := func() sink.Event {
		var e sink.Event
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		require.NoError(t, conn.ReadJSON(&e))
		kinds = append(kinds, string(e.Kind))
		return e
	}

	// replayed
	readOne()
	readOne()
	close(runner.gate)
	// live
	tr := readOne()
	assert.Equal(t, "hello", tr.Text)
	last := readOne()
	assert.True(t, last.Terminal)

	assert.Equal(t, []string{"state", "status", "transcription", "state"}, kinds)
}
