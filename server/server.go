// Package server is the web front end: a single page that starts runs and
// follows their events over a websocket.
package server

import (
	"context"
	"embed"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ytscribe/history"
	"ytscribe/internal/logging"
	"ytscribe/orchestrator"
	"ytscribe/sink"
	"ytscribe/videoid"
)

//go:embed static/index.html
var static embed.FS

// Runner executes one request. *orchestrator.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request, out sink.Sink) *orchestrator.Outcome
}

// Options configures a Server.
type Options struct {
	// History, when set, records every run and serves /api/history.
	History         *history.Store
	TargetLanguage  string
	ShutdownTimeout time.Duration
	MaxRuns         int
	// Resources, when set, reports resource usage on /healthz.
	Resources func() map[string]interface{}
}

// Server serves the web UI and its API.
type Server struct {
	app    *fiber.App
	runner Runner
	hub    *Hub
	opts   Options
	logger *zap.SugaredLogger

	runCtx     context.Context
	cancelRuns context.CancelFunc
	wg         sync.WaitGroup
}

type runRequest struct {
	URL            string `json:"url"`
	Translate      bool   `json:"translate"`
	TargetLanguage string `json:"target_language"`
}

// New creates a Server with its routes registered.
func New(runner Runner, opts Options, logger *zap.SugaredLogger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		runner:     runner,
		hub:        NewHub(opts.MaxRuns),
		opts:       opts,
		logger:     logging.OrNop(logger),
		runCtx:     ctx,
		cancelRuns: cancel,
	}
	s.routes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) routes() {
	s.app.Get("/", s.handleIndex)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if s.opts.Resources != nil {
			body["resources"] = s.opts.Resources()
		}
		return c.JSON(body)
	})

	api := s.app.Group("/api")
	api.Post("/runs", s.handleCreateRun)
	api.Get("/runs/:id", s.handleGetRun)
	api.Delete("/runs/:id", s.handleCancelRun)
	api.Get("/history", s.handleHistory)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/runs/:id", websocket.New(s.handleEvents))
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(page)
}

func (s *Server) handleCreateRun(c *fiber.Ctx) error {
	var body runRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`url` field is required"})
	}

	req := orchestrator.Request{URL: body.URL, Translate: body.Translate, TargetLanguage: body.TargetLanguage}
	if req.TargetLanguage == "" {
		req.TargetLanguage = s.opts.TargetLanguage
	}

	id := uuid.NewString()
	s.start(id, req)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":     id,
		"events": "/ws/runs/" + id,
	})
}

// start runs req on its own goroutine so the request returns at once.
func (s *Server) start(id string, req orchestrator.Request) *runState {
	ctx, cancel := context.WithCancel(s.runCtx)
	rs := s.hub.create(id, req, cancel)

	out := sink.Multi{rs}
	if s.opts.History != nil {
		run := history.Run{ID: id, URL: req.URL, Translate: req.Translate, TargetLanguage: req.TargetLanguage}
		if vid, err := videoid.Extract(req.URL); err == nil {
			run.VideoID = string(vid)
		}
		out = append(out, history.NewRecorder(s.opts.History, run, s.logger))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.logger.Infow("run started", "run_id", id, "url", req.URL, "translate", req.Translate)
		rs.finish(s.runner.Run(ctx, req, out))
	}()
	return rs
}

func (s *Server) handleGetRun(c *fiber.Ctx) error {
	rs, ok := s.hub.get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	return c.JSON(rs.view())
}

func (s *Server) handleCancelRun(c *fiber.Ctx) error {
	rs, ok := s.hub.get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	if rs.cancel != nil {
		rs.cancel()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.opts.History == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "history is disabled"})
	}
	runs, err := s.opts.History.List(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		s.logger.Warnw("history query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history unavailable"})
	}
	if runs == nil {
		runs = []history.Run{}
	}
	return c.JSON(runs)
}

// handleEvents replays the run's events, then streams new ones until the
// terminal event.
func (s *Server) handleEvents(ws *websocket.Conn) {
	defer ws.Close()

	rs, ok := s.hub.get(ws.Params("id"))
	if !ok {
		_ = ws.WriteJSON(fiber.Map{"error": "run not found"})
		return
	}

	replay, live, unsubscribe := rs.subscribe()
	defer unsubscribe()

	for _, e := range replay {
		if err := ws.WriteJSON(e); err != nil {
			return
		}
	}
	for e := range live {
		if err := ws.WriteJSON(e); err != nil {
			s.logger.Debugw("websocket write failed", "run_id", rs.id, "error", err)
			return
		}
	}
}

// Serve listens on addr until ctx is done, then shuts down and waits for
// in-flight runs, which are cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Infow("web UI listening", "addr", ln.Addr().String())
		return s.app.Listener(ln)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Infow("shutting down web UI")
		s.cancelRuns()
		s.hub.cancelAll()
		err := s.app.ShutdownWithTimeout(s.opts.ShutdownTimeout)
		s.wg.Wait()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
